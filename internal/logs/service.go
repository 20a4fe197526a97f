package logs

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// Result is the JSON body of a historical or frontend log query. Logs holds
// either []string or []Record.
type Result struct {
	Logs           any    `json:"logs"`
	TotalLines     int    `json:"totalLines"`
	RequestedLines int    `json:"requestedLines"`
	ReturnedLines  int    `json:"returnedLines"`
	HasMore        bool   `json:"hasMore"`
	File           string `json:"file"`
}

// ProcessLister is the part of the registry the frontend fallback needs.
type ProcessLister interface {
	ListProcesses(ctx context.Context) ([]registry.ProcessInfo, error)
}

// Service answers historical and frontend log queries.
type Service struct {
	locator *Locator
	reader  *Reader
	procs   ProcessLister
	log     logger.Logger
	now     func() time.Time
}

func NewService(locator *Locator, reader *Reader, procs ProcessLister, log logger.Logger) *Service {
	return &Service{locator: locator, reader: reader, procs: procs, log: log, now: time.Now}
}

// Historical reads the backend log of app. Files written by PM2 are parsed
// into records; any other file is returned as plain lines.
func (s *Service) Historical(ctx context.Context, app string, w Window) (*Result, error) {
	path, ok := s.locator.Locate(app, CategoryBackend)
	if !ok {
		searched := s.locator.CandidatePaths(app, CategoryBackend)
		return nil, apperr.NotFound("PM2 log file").
			WithDetails("Searched paths: " + strings.Join(searched, ", "))
	}

	page, err := s.reader.Read(ctx, path, w)
	if err != nil {
		return nil, err
	}

	res := fromPage(page)
	if s.isPM2File(path) {
		res.Logs = ParseKnownFormat(page.Lines, page.StartIndex, s.now())
	}
	return res, nil
}

func (s *Service) isPM2File(path string) bool {
	return s.locator.InPM2Dir(path) ||
		strings.Contains(path, ".pm2") ||
		strings.Contains(filepath.Base(path), "-out-")
}

// Frontend reads the frontend log of app. When no file exists it answers
// with guidance text instead of an error.
func (s *Service) Frontend(ctx context.Context, app string, w Window) (*Result, error) {
	path, ok := s.locator.Locate(app, CategoryFrontend)
	if !ok {
		return s.frontendGuidance(ctx, app), nil
	}

	page, err := s.reader.Read(ctx, path, w)
	if err != nil {
		return nil, err
	}
	return fromPage(page), nil
}

func fromPage(p *Page) *Result {
	return &Result{
		Logs:           p.Lines,
		TotalLines:     p.TotalLines,
		RequestedLines: p.RequestedLines,
		ReturnedLines:  p.ReturnedLines,
		HasMore:        p.HasMore,
		File:           p.File,
	}
}
