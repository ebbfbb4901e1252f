package source

import "strings"

// Field names the memory extractor produces itself.
const (
	NodeIDField  = "nid"
	BootMemField = "percent_boot_mem"

	nodeIDTag = "n"
)

// excised replaces a cut-out sub-structure so the flat split stays aligned.
// It contains no delimiter, so it always lands as a single value token.
const excised = "__rur_excised__"

type memBlock struct {
	name  string
	key   string // inner key prefix, including the opening delimiter
	close byte
}

// The memory body nests these sub-structures among its flat pairs, in the
// same delimiter style, so they are cut out before the flat split.
var (
	meminfoBlock   = memBlock{name: "meminfo", key: "meminfo: {", close: '}'}
	bootmemBlock   = memBlock{name: "bootmem", key: "%_of_boot_mem: [", close: ']'}
	hugepagesBlock = memBlock{name: "hugepages", key: "hugepages: {", close: '}'}
)

// cut finds b in body and returns its interior and the body with the block
// replaced by the excision sentinel. found is false when the key is absent.
func (b memBlock) cut(body string) (interior, rest string, found bool, err error) {
	idx := strings.Index(body, b.key)
	if idx < 0 {
		return "", body, false, nil
	}
	start := idx + len(b.key)
	end := strings.IndexByte(body[start:], b.close)
	if end < 0 {
		return "", body, true, &NestedStructureError{Block: b.name}
	}
	interior = body[start : start+end]
	// Keep "key: " and swap the bracketed part for the sentinel.
	rest = body[:start-1] + excised + body[start+end+1:]
	return interior, rest, true, nil
}

func extractMemory(body string) (RawFields, error) {
	body = stripQuotes(body)

	meminfo, body, _, err := meminfoBlock.cut(body)
	if err != nil {
		return nil, err
	}
	bootmem, body, _, err := bootmemBlock.cut(body)
	if err != nil {
		return nil, err
	}
	hugepages, body, _, err := hugepagesBlock.cut(body)
	if err != nil {
		return nil, err
	}

	fields := splitPairs(body)
	for k, v := range fields {
		if v == excised || k == excised {
			delete(fields, k)
		}
	}

	for _, sub := range []string{meminfo, hugepages} {
		for k, v := range splitPairs(sub) {
			fields[normalizeKey(k)] = v
		}
	}

	if nid, ok := fields[NodeIDField]; ok {
		fields[NodeIDField] = nodeIDTag + nid
	}

	// An empty array contributes nothing, not one empty entry.
	if entries := splitList(bootmem); len(entries) > 0 {
		fields[BootMemField] = strings.Join(entries, ", ")
	}

	return fields, nil
}

// normalizeKey turns "Active(anon)" into "Active_anon"; parentheses are not
// legal in resource names.
func normalizeKey(k string) string {
	if strings.IndexByte(k, '(') < 0 {
		return k
	}
	return strings.NewReplacer("(", "_", ")", "").Replace(k)
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
