package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/rurhook/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "sub", "accounting.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveAndLoadJob(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	err := st.SaveReport(ctx, Report{
		JobID:     "1042.sdb",
		FilePath:  "/var/spool/rur/rur.1042",
		Lines:     7,
		Records:   5,
		Mapping:   model.ResultMapping{"tst_utime": "10", "mem_nid": "n3, n7"},
		MtimeNs:   123,
		SizeBytes: 456,
	})
	require.NoError(t, err)

	job, err := st.LoadJob(ctx, "1042.sdb")
	require.NoError(t, err)
	assert.Equal(t, "/var/spool/rur/rur.1042", job.FilePath)
	assert.Equal(t, 7, job.Lines)
	assert.Equal(t, 5, job.Records)
	assert.False(t, job.ProcessedAt.IsZero())
	assert.Equal(t, model.ResultMapping{"tst_utime": "10", "mem_nid": "n3, n7"}, job.Resources)

	tracked, err := st.GetTrackedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 123, SizeBytes: 456}, tracked["/var/spool/rur/rur.1042"])
}

func TestSaveReportReplaces(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	require.NoError(t, st.Record(ctx, "7", model.ResultMapping{"tst_utime": "1", "tst_stime": "2"}))
	require.NoError(t, st.Record(ctx, "7", model.ResultMapping{"tst_utime": "3"}))

	job, err := st.LoadJob(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, model.ResultMapping{"tst_utime": "3"}, job.Resources)

	n, err := st.JobCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveReportNeedsJobID(t *testing.T) {
	st := openTest(t)
	assert.Error(t, st.Record(context.Background(), "", model.ResultMapping{"a": "1"}))
}

func TestLoadJobNotFound(t *testing.T) {
	st := openTest(t)
	_, err := st.LoadJob(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestListAndDeleteJobs(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, st.Record(ctx, id, model.ResultMapping{"tst_utime": id, "tst_stime": "0"}))
	}

	jobs, err := st.ListJobs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, 2, jobs[0].Resources)

	all, err := st.ListJobs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, st.DeleteJob(ctx, "2"))
	_, err = st.LoadJob(ctx, "2")
	assert.ErrorIs(t, err, ErrJobNotFound)

	n, err := st.JobCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTrackFile(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	require.NoError(t, st.TrackFile(ctx, "/spool/rur.9", 1, 2))
	require.NoError(t, st.TrackFile(ctx, "/spool/rur.9", 3, 4))

	tracked, err := st.GetTrackedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]FileInfo{"/spool/rur.9": {MtimeNs: 3, SizeBytes: 4}}, tracked)
}
