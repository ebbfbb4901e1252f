package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFunc(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestParseConf(t *testing.T) {
	vars, err := parseConf(strings.NewReader(`
# PBS configuration
PBS_EXEC=/opt/pbs
PBS_HOME = /var/spool/pbs
PBS_SERVER="sdb"
not a setting
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"PBS_EXEC":   "/opt/pbs",
		"PBS_HOME":   "/var/spool/pbs",
		"PBS_SERVER": "sdb",
	}, vars)
}

func TestReadScheduler(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "pbs.conf")
	require.NoError(t, os.WriteFile(conf, []byte("PBS_HOME=/var/spool/pbs\nPBS_SERVER=sdb\n"), 0o600))

	s, err := ReadScheduler(conf, envFunc(map[string]string{
		"PBS_JOBID":  "1042.sdb",
		"PBS_SERVER": "sdb-backup",
	}))
	require.NoError(t, err)
	assert.Equal(t, Scheduler{JobID: "1042.sdb", Home: "/var/spool/pbs", Server: "sdb-backup"}, s)
	assert.Equal(t, "1042", s.ShortJobID())
}

func TestReadSchedulerConfFileFromEnv(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "alt.conf")
	require.NoError(t, os.WriteFile(conf, []byte("PBS_HOME=/alt\n"), 0o600))

	s, err := ReadScheduler("/does/not/exist", envFunc(map[string]string{"PBS_CONF_FILE": conf}))
	require.NoError(t, err)
	assert.Equal(t, "/alt", s.Home)
}

func TestReadSchedulerMissingConf(t *testing.T) {
	s, err := ReadScheduler(filepath.Join(t.TempDir(), "pbs.conf"), envFunc(map[string]string{"PBS_HOME": "/h"}))
	require.NoError(t, err)
	assert.Equal(t, "/h", s.Home)
}

func TestReportPath(t *testing.T) {
	cfg := DefaultConfig()
	s := Scheduler{JobID: "1042.sdb", Home: "/var/spool/pbs"}
	assert.Equal(t, "/var/spool/rur/rur.1042", cfg.ReportPath(s))

	cfg.Report.Dir = "spool"
	cfg.Report.Pattern = "{fulljobid}.rur"
	assert.Equal(t, "/var/spool/pbs/spool/1042.sdb.rur", cfg.ReportPath(s))
}

func TestShortJobIDWithoutServer(t *testing.T) {
	assert.Equal(t, "77", Scheduler{JobID: "77"}.ShortJobID())
}
