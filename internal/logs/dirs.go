package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dirs lists the directories searched for log files. Development and
// Production are the application's own log directories; PM2 holds the
// process manager's per-process output files.
type Dirs struct {
	Development []string `yaml:"development"`
	Production  []string `yaml:"production"`
	PM2         []string `yaml:"pm2"`
}

// DefaultDirs returns the built-in layout. pm2Home is the process manager
// home directory; its logs subdirectory is searched last.
func DefaultDirs(pm2Home string) Dirs {
	return Dirs{
		Development: []string{"frontend/logs", "logs", "backend/logs"},
		Production: []string{
			"/opt/big-brother/logs",
			"/opt/big-brother/frontend/logs",
			"/opt/big-brother/backend/logs",
			"/var/log/myapps",
		},
		PM2: []string{filepath.Join(pm2Home, "logs")},
	}
}

// DirsLoader reads a Dirs override from a YAML file.
type DirsLoader struct {
	filePath string
}

func NewDirsLoader(filePath string) *DirsLoader {
	return &DirsLoader{filePath: filePath}
}

// Load reads the file and merges it over fallback: a list missing from the
// file keeps its fallback value.
func (l *DirsLoader) Load(fallback Dirs) (Dirs, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to read log dirs file: %w", err)
	}

	var override Dirs
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Dirs{}, fmt.Errorf("failed to parse log dirs yaml: %w", err)
	}

	out := fallback
	if len(override.Development) > 0 {
		out.Development = expandAll(override.Development)
	}
	if len(override.Production) > 0 {
		out.Production = expandAll(override.Production)
	}
	if len(override.PM2) > 0 {
		out.PM2 = expandAll(override.PM2)
	}
	return out, nil
}

// expandAll resolves a leading ~ and $VARS in every entry.
// Example: ~/.pm2/logs -> /home/deploy/.pm2/logs
func expandAll(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = os.ExpandEnv(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if d == "~" || strings.HasPrefix(d, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				d = filepath.Join(home, strings.TrimPrefix(d, "~"))
			}
		}
		out = append(out, d)
	}
	return out
}
