package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Scheduler is the subset of the batch scheduler's environment the hook needs.
type Scheduler struct {
	JobID  string
	Home   string
	Exec   string
	Server string
}

// ShortJobID returns the numeric part of a job id such as "1234.server".
func (s Scheduler) ShortJobID() string {
	if i := strings.IndexByte(s.JobID, '.'); i >= 0 {
		return s.JobID[:i]
	}
	return s.JobID
}

// ReadScheduler resolves the scheduler environment. Values come from the
// scheduler configuration file and are overridden by the process
// environment. A missing configuration file is not an error.
func ReadScheduler(confFile string, getenv func(string) string) (Scheduler, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("PBS_CONF_FILE"); v != "" {
		confFile = v
	}

	vars := map[string]string{}
	if confFile != "" {
		f, err := os.Open(confFile) //nolint:gosec // scheduler config path comes from the environment
		switch {
		case err == nil:
			vars, err = parseConf(f)
			_ = f.Close()
			if err != nil {
				return Scheduler{}, fmt.Errorf("reading %s: %w", confFile, err)
			}
		case !os.IsNotExist(err):
			return Scheduler{}, fmt.Errorf("opening scheduler config: %w", err)
		}
	}

	for _, key := range []string{"PBS_HOME", "PBS_EXEC", "PBS_SERVER"} {
		if v := getenv(key); v != "" {
			vars[key] = v
		}
	}

	return Scheduler{
		JobID:  getenv("PBS_JOBID"),
		Home:   vars["PBS_HOME"],
		Exec:   vars["PBS_EXEC"],
		Server: vars["PBS_SERVER"],
	}, nil
}

// parseConf reads KEY=VALUE lines. Blank lines and # comments are ignored,
// lines without '=' are dropped.
func parseConf(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return vars, sc.Err()
}

// ReportPath expands the report file pattern for the given job. A relative
// report directory is resolved against the scheduler home.
func (c Config) ReportPath(s Scheduler) string {
	name := strings.ReplaceAll(c.Report.Pattern, "{jobid}", s.ShortJobID())
	name = strings.ReplaceAll(name, "{fulljobid}", s.JobID)
	dir := c.Report.Dir
	if !filepath.IsAbs(dir) && s.Home != "" {
		dir = filepath.Join(s.Home, dir)
	}
	return filepath.Join(dir, name)
}
