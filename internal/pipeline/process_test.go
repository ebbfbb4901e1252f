package pipeline

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/theirongolddev/rurhook/internal/source"
)

const linePrefix = "uid: 12345, apid: 86989, jobid: 1042.sdb, cmdname: a.out, plugin: "

func processString(t *testing.T, report string) (*Result, error) {
	t.Helper()
	return Process(strings.NewReader(report), Options{Logger: zaptest.NewLogger(t)})
}

func TestProcessFixture(t *testing.T) {
	f, err := os.Open("testdata/rur.1042")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	res, err := Process(f, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, "1042.sdb", res.JobID)
	assert.Equal(t, 7, res.Lines)
	assert.Equal(t, 5, res.Records)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.UnknownPlugins)
	assert.NoError(t, res.Warnings)

	m := res.Mapping
	assert.Len(t, m, 33)

	assert.Equal(t, "150", m["mem_current_freemem"])
	assert.Equal(t, "50", m["mem_free_mem_min"])
	assert.Equal(t, "750", m["mem_boot_freemem"])
	assert.Equal(t, "1500", m["mem_Active_anon"])
	assert.Equal(t, "50", m["mem_Slab"])
	assert.Equal(t, "2", m["mem_HugePages_Total"])
	assert.Equal(t, "n3, n7", m["mem_nid"])
	assert.Equal(t, "c0-0c0s0n3, c0-0c0s1n7", m["mem_cname"])
	assert.Equal(t, "1.00, 2.00, 3.00", m["mem_percent_boot_mem"])

	assert.Equal(t, "10000000", m["tst_utime"])
	assert.Equal(t, "940", m["tst_max_rss"])
	assert.NotContains(t, m, "tst_core")
	assert.NotContains(t, m, "tst_exitcode:signal")

	assert.Equal(t, "61200", m["eng_energy_used"])
	assert.Equal(t, "2", m["eng_nodes"])

	assert.Equal(t, "APP_START 2024-02-01T10:00:00CST APP_STOP 2024-02-01T10:05:00CST", m["rur_timestamp"])
}

func TestProcessMemorySumAndJoin(t *testing.T) {
	res, err := processString(t,
		linePrefix+"memory {'current_freemem': 100, 'nid': 3}\n"+
			linePrefix+"memory {'current_freemem': 50, 'nid': 7}\n")
	require.NoError(t, err)
	assert.Equal(t, "150", res.Mapping["mem_current_freemem"])
	assert.Equal(t, "n3, n7", res.Mapping["mem_nid"])
}

func TestProcessMeminfoExpansion(t *testing.T) {
	res, err := processString(t, linePrefix+"memory {'meminfo': {'Active(anon)': 1000, 'Slab': 20}}\n")
	require.NoError(t, err)
	assert.Equal(t, "1000", res.Mapping["mem_Active_anon"])
	assert.Equal(t, "20", res.Mapping["mem_Slab"])
}

func TestProcessEmptyBootMem(t *testing.T) {
	res, err := processString(t, linePrefix+"memory {'nid': 3, '%_of_boot_mem': []}\n")
	require.NoError(t, err)
	assert.NotContains(t, res.Mapping, "mem_percent_boot_mem")
	assert.Equal(t, "n3", res.Mapping["mem_nid"])
}

func TestProcessSingleLinePluginLastWins(t *testing.T) {
	res, err := processString(t,
		linePrefix+"energy {'energy_used': 10, 'nodes': 2}\n"+
			linePrefix+"energy {'energy_used': 20}\n")
	require.NoError(t, err)
	assert.Equal(t, "20", res.Mapping["eng_energy_used"])
	// The second line replaces the whole accumulator.
	assert.NotContains(t, res.Mapping, "eng_nodes")
}

func TestProcessCoercionAborts(t *testing.T) {
	res, err := processString(t,
		linePrefix+"taskstats ['utime', 10]\n"+
			linePrefix+"energy {'energy_used': 'lots'}\n")
	assert.Nil(t, res)

	var ce *source.CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "energy_used", ce.Field)
	assert.Contains(t, err.Error(), "line 2")
}

func TestProcessNestedStructureWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	res, err := Process(strings.NewReader(
		linePrefix+"memory {'nid': 3, 'meminfo': {'Slab': 20}\n"+
			linePrefix+"memory {'nid': 7, 'current_freemem': 5}\n"+
			linePrefix+"taskstats ['utime', 10]\n"),
		Options{Logger: zap.New(core)})
	require.NoError(t, err)

	errs := multierr.Errors(res.Warnings)
	require.Len(t, errs, 1)
	var nested *source.NestedStructureError
	require.ErrorAs(t, errs[0], &nested)
	assert.Equal(t, 1, nested.Line)
	assert.Equal(t, "meminfo", nested.Block)

	// Only the broken line's memory data is lost.
	assert.Equal(t, "n7", res.Mapping["mem_nid"])
	assert.Equal(t, "5", res.Mapping["mem_current_freemem"])
	assert.Equal(t, "10", res.Mapping["tst_utime"])
	assert.Equal(t, 1, logs.FilterMessage("dropping memory data from malformed line").Len())
}

func TestProcessUnknownPluginLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	res, err := Process(strings.NewReader(linePrefix+"gpustat {'util': 90}\n"), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Empty(t, res.Mapping)
	assert.Equal(t, 1, res.UnknownPlugins)

	entries := logs.FilterMessage("skipping unknown plugin").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gpustat", entries[0].ContextMap()["plugin"])
	assert.Equal(t, "1042.sdb", entries[0].ContextMap()["job_id"])
}

func TestProcessEmptyReport(t *testing.T) {
	res, err := processString(t, "")
	require.NoError(t, err)
	assert.Empty(t, res.Mapping)
	assert.Empty(t, res.JobID)
	assert.Zero(t, res.Lines)
}

func TestProcessIdempotent(t *testing.T) {
	reports := []string{
		linePrefix + "taskstats ['utime', 10, 'stime', 3]\n",
		linePrefix + "energy {'energy_used': 61200, 'nodes': 2}\n",
		linePrefix + "timestamp APP_START x APP_STOP y\n",
	}
	for _, report := range reports {
		first, err := processString(t, report)
		require.NoError(t, err)
		second, err := processString(t, report)
		require.NoError(t, err)
		assert.Equal(t, first.Mapping, second.Mapping)
		assert.NotEmpty(t, first.Mapping)
	}
}

func TestProcessCRLF(t *testing.T) {
	res, err := processString(t, linePrefix+"energy {'energy_used': 12}\r\n")
	require.NoError(t, err)
	assert.Equal(t, "12", res.Mapping["eng_energy_used"])
}
