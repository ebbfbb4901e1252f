package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/theirongolddev/rurhook/internal/config"
)

// benchReport builds a report with one memory line per node, the shape of a
// wide job.
func benchReport(b *testing.B, nodes int) []byte {
	b.Helper()
	fixture, err := os.ReadFile("testdata/rur.1042")
	if err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer
	buf.Write(fixture)
	for i := 0; i < nodes; i++ {
		buf.WriteString(linePrefix + "memory {'current_freemem': 100, 'nid': " + strconv.Itoa(i) +
			", 'meminfo': {'Active(anon)': 1000, 'Slab': 20}, '%_of_boot_mem': ['1.00'], " +
			"'hugepages': {'HugePages_Total': 0, 'HugePages_Free': 0}}\n")
	}
	return buf.Bytes()
}

func BenchmarkProcess(b *testing.B) {
	report := benchReport(b, 512)
	schema, err := config.DefaultSchema()
	if err != nil {
		b.Fatal(err)
	}
	opts := Options{Schema: schema}

	b.SetBytes(int64(len(report)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Process(bytes.NewReader(report), opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadDir(b *testing.B) {
	dir := b.TempDir()
	report := benchReport(b, 64)
	for i := 0; i < 32; i++ {
		if err := os.WriteFile(filepath.Join(dir, "rur."+strconv.Itoa(i)), report, 0o600); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadDir(dir, "rur.{jobid}", Options{}, nil); err != nil {
			b.Fatal(err)
		}
	}
}
