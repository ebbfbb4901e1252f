package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-12,345", FormatNumber(-12345))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "107,480", FormatValue("107480", 10))
	assert.Equal(t, "n3, n7", FormatValue("n3, n7", 10))
	assert.Equal(t, "n1, n2,...", FormatValue("n1, n2, n3, n4", 10))
	assert.Equal(t, "n1, n2, n3, n4", FormatValue("n1, n2, n3, n4", 0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "a...", Truncate("abcdef", 4))
	assert.Equal(t, "äö...", Truncate("äöüßxyz", 5))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Len(t, FormatTime(time.Now()), len("2006-01-02 15:04:05"))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Resources",
		Headers: []string{"Resource", "Value"},
		Rows: [][]string{
			{"mem_nid", "n3, n7"},
			{"---"},
			{"tst_utime", "10"},
		},
	})
	assert.Contains(t, out, "Resources")
	assert.Contains(t, out, "mem_nid")
	assert.Contains(t, out, "tst_utime")
	// top, header, header rule, two rows, separator, bottom, plus title
	assert.Equal(t, 8, strings.Count(out, "\n"))
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}
