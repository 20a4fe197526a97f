package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// systemStats aggregates the process list. Memory is in bytes, CPU in percent.
type systemStats struct {
	TotalApps     int     `json:"totalApps"`
	OnlineApps    int     `json:"onlineApps"`
	TotalMemory   int64   `json:"totalMemory"`
	AvgCPU        float64 `json:"avgCpu"`
	TotalRestarts int     `json:"totalRestarts"`
	Uptime        float64 `json:"uptime"`
}

type systemStatsResponse struct {
	Success   bool        `json:"success"`
	Data      systemStats `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func summarize(procs []registry.ProcessInfo) systemStats {
	var st systemStats
	var cpu float64
	for _, p := range procs {
		if p.Status == registry.StatusOnline {
			st.OnlineApps++
		}
		st.TotalMemory += p.MemoryBytes
		st.TotalRestarts += p.RestartCount
		cpu += p.CPUPercent
	}
	st.TotalApps = len(procs)
	if st.TotalApps > 0 {
		st.AvgCPU = cpu / float64(st.TotalApps)
	}
	return st
}

// SystemStats returns totals over every managed process.
func SystemStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procs, err := d.Registry.ListProcesses(r.Context())
		if err != nil {
			writeFailure(d, w, "Failed to fetch system statistics", err)
			return
		}

		st := summarize(procs)
		st.Uptime = d.Now().Sub(d.StartTime).Seconds()
		writeJSON(w, http.StatusOK, systemStatsResponse{Success: true, Data: st, Timestamp: timestamp(d)})
	}
}
