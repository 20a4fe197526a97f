package logs

import (
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/bigbrother/internal/validation"
)

// Category distinguishes the backend and frontend halves of an application.
type Category string

const (
	CategoryBackend  Category = "backend"
	CategoryFrontend Category = "frontend"
)

// Locator maps an application to an existing log file.
type Locator struct {
	dirs       Dirs
	production bool
	exists     func(path string) bool
}

func NewLocator(dirs Dirs, production bool) *Locator {
	return &Locator{dirs: dirs, production: production, exists: isRegularFile}
}

// CandidatePaths returns every path searched for app, most specific first.
// It only depends on configuration. Names that are not safe path components
// have no candidates.
func (l *Locator) CandidatePaths(app string, cat Category) []string {
	if !validation.AppName(app) {
		return nil
	}

	base := l.dirs.Development
	if l.production {
		base = l.dirs.Production
	}

	out := make([]string, 0, len(base)*4+len(l.dirs.PM2)*3)
	for _, dir := range base {
		out = append(out,
			filepath.Join(dir, app+".log"),
			filepath.Join(dir, app+"-"+string(cat)+".log"),
			filepath.Join(dir, app+"-out-0.log"),
			filepath.Join(dir, app+"-"+string(cat)+"-out-0.log"),
		)
	}
	for _, dir := range l.dirs.PM2 {
		out = append(out,
			filepath.Join(dir, app+"-out-0.log"),
			filepath.Join(dir, app+"-"+string(cat)+"-out-0.log"),
			filepath.Join(dir, app+"-error-0.log"),
		)
	}
	return out
}

// Locate returns the first candidate that exists. A missing file is not an
// error.
func (l *Locator) Locate(app string, cat Category) (string, bool) {
	for _, p := range l.CandidatePaths(app, cat) {
		if l.exists(p) {
			return p, true
		}
	}
	return "", false
}

// InPM2Dir reports whether path lives under one of the PM2 log directories.
func (l *Locator) InPM2Dir(path string) bool {
	for _, dir := range l.dirs.PM2 {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel) {
			return true
		}
	}
	return false
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
