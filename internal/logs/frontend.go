package logs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

const (
	frontendProcessName = "big-brother-frontend"
	searchedPathsShown  = 5

	FileProcessInfo = "PM2 process information"
	FileNone        = "No log file found"
)

func (s *Service) frontendGuidance(ctx context.Context, app string) *Result {
	searched := s.locator.CandidatePaths(app, CategoryFrontend)
	if len(searched) > searchedPathsShown {
		searched = searched[:searchedPathsShown]
	}
	searchedLine := "Searched paths: " + strings.Join(searched, ", ")

	procs, err := s.procs.ListProcesses(ctx)
	if err != nil {
		s.log.Warn("frontend fallback: registry unavailable",
			logger.String("app", app), logger.Error(err))
		return guidance(FileNone,
			"No frontend log file found.",
			"Frontend logs are typically available only in production environments.",
			"For development, check the console output in your terminal or browser developer tools.",
			searchedLine,
		)
	}

	if p, ok := findFrontendProcess(procs, app); ok {
		return guidance(FileProcessInfo,
			"Frontend process found in PM2: "+p.Name,
			"Status: "+string(p.Status),
			"PID: "+strconv.Itoa(p.PID),
			fmt.Sprintf("Uptime: %ds", p.UptimeMs/1000),
			fmt.Sprintf("Memory: %dMB", p.MemoryBytes/1024/1024),
			"CPU: "+strconv.FormatFloat(p.CPUPercent, 'f', -1, 64)+"%",
			"",
			"To view live frontend logs, use the 'Historical' tab for the frontend process,",
			"or check the PM2 logs directly with: pm2 logs "+p.Name,
			"",
			"For detailed frontend logs in development:",
			"- Check the browser developer console (F12)",
			"- Check the terminal where you started the frontend",
			"- Use 'Historical' logs tab if frontend is running via PM2",
		)
	}

	return guidance(FileNone,
		"No frontend log file found.",
		"Frontend process not found in PM2.",
		"",
		"Frontend logs in development are typically found in:",
		"- Browser developer console (F12 → Console tab)",
		"- Terminal window where you started 'npm run dev'",
		"- PM2 logs if frontend is running via PM2",
		"",
		"For production environments, frontend logs will be available here.",
		searchedLine,
	)
}

// findFrontendProcess picks the first process that looks like the frontend
// of app.
func findFrontendProcess(procs []registry.ProcessInfo, app string) (registry.ProcessInfo, bool) {
	for _, p := range procs {
		if p.Name == frontendProcessName || strings.Contains(p.Name, "frontend") || p.Name == app {
			return p, true
		}
	}
	return registry.ProcessInfo{}, false
}

func guidance(file string, lines ...string) *Result {
	return &Result{
		Logs:           lines,
		TotalLines:     len(lines),
		RequestedLines: len(lines),
		ReturnedLines:  len(lines),
		File:           file,
	}
}
