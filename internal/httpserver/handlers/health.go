package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
)

// host probes (injectable for testing)
var (
	hostInfoFn      = host.InfoWithContext
	virtualMemoryFn = mem.VirtualMemoryWithContext
	loadAvgFn       = load.AvgWithContext
	cpuCountFn      = cpu.CountsWithContext
)

type processMemory struct {
	HeapAlloc uint64 `json:"heapAlloc"`
	HeapInuse uint64 `json:"heapInuse"`
	Sys       uint64 `json:"sys"`
	NumGC     uint32 `json:"numGC"`
}

func readProcessMemory() processMemory {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return processMemory{HeapAlloc: ms.HeapAlloc, HeapInuse: ms.HeapInuse, Sys: ms.Sys, NumGC: ms.NumGC}
}

type healthResponse struct {
	Success     bool          `json:"success"`
	Status      string        `json:"status"`
	Uptime      float64       `json:"uptime"`
	Memory      processMemory `json:"memory"`
	Timestamp   string        `json:"timestamp"`
	Version     string        `json:"version"`
	Environment string        `json:"environment"`
	Platform    string        `json:"platform"`
	PID         int           `json:"pid"`
}

// Health is the public liveness summary of the API.
func Health(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Success:     true,
			Status:      "healthy",
			Uptime:      d.Now().Sub(d.StartTime).Seconds(),
			Memory:      readProcessMemory(),
			Timestamp:   timestamp(d),
			Version:     d.Version,
			Environment: d.Environment,
			Platform:    runtime.GOOS,
			PID:         os.Getpid(),
		})
	}
}

type systemSection struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	Kernel          string `json:"kernel"`
	Arch            string `json:"arch"`
	Uptime          uint64 `json:"uptime"`
	BootTime        uint64 `json:"bootTime"`
}

type memorySection struct {
	Total       uint64        `json:"total"`
	Available   uint64        `json:"available"`
	Used        uint64        `json:"used"`
	UsedPercent float64       `json:"usedPercent"`
	Process     processMemory `json:"process"`
}

type cpuSection struct {
	Count  int     `json:"count"`
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

type configSection struct {
	Environment        string `json:"environment"`
	GoVersion          string `json:"goVersion"`
	AccessTokenExpiry  string `json:"accessTokenExpiry"`
	RefreshTokenExpiry string `json:"refreshTokenExpiry"`
	RefreshStore       string `json:"refreshStore"`
	SinkEnabled        bool   `json:"sinkEnabled"`
}

type detailedHealthResponse struct {
	Success   bool          `json:"success"`
	Status    string        `json:"status"`
	Uptime    float64       `json:"uptime"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	PID       int           `json:"pid"`
	System    systemSection `json:"system"`
	Memory    memorySection `json:"memory"`
	CPU       cpuSection    `json:"cpu"`
	Config    configSection `json:"config"`
}

// DetailedHealth adds host statistics and the effective configuration.
func DetailedHealth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		info, err := hostInfoFn(ctx)
		if err != nil {
			WriteError(d, w, apperr.Wrap(apperr.KindInternal, err, "Failed to collect system information"))
			return
		}
		vm, err := virtualMemoryFn(ctx)
		if err != nil {
			WriteError(d, w, apperr.Wrap(apperr.KindInternal, err, "Failed to collect memory information"))
			return
		}

		// load and cpu count are best effort; not every platform has them
		cpus, _ := cpuCountFn(ctx, true)
		cpuOut := cpuSection{Count: cpus}
		if avg, err := loadAvgFn(ctx); err == nil {
			cpuOut.Load1, cpuOut.Load5, cpuOut.Load15 = avg.Load1, avg.Load5, avg.Load15
		}

		store := "memory"
		if d.Redis != nil {
			store = "redis"
		}

		writeJSON(w, http.StatusOK, detailedHealthResponse{
			Success:   true,
			Status:    "healthy",
			Uptime:    d.Now().Sub(d.StartTime).Seconds(),
			Timestamp: timestamp(d),
			Version:   d.Version,
			PID:       os.Getpid(),
			System: systemSection{
				Hostname:        info.Hostname,
				Platform:        info.Platform,
				PlatformVersion: info.PlatformVersion,
				Kernel:          info.KernelVersion,
				Arch:            info.KernelArch,
				Uptime:          info.Uptime,
				BootTime:        info.BootTime,
			},
			Memory: memorySection{
				Total:       vm.Total,
				Available:   vm.Available,
				Used:        vm.Used,
				UsedPercent: vm.UsedPercent,
				Process:     readProcessMemory(),
			},
			CPU: cpuOut,
			Config: configSection{
				Environment:        d.Environment,
				GoVersion:          d.GoVersion,
				AccessTokenExpiry:  auth.FormatTTL(d.Auth.AccessTTL()),
				RefreshTokenExpiry: auth.FormatTTL(d.Auth.RefreshTTL()),
				RefreshStore:       store,
				SinkEnabled:        d.Sink != nil,
			},
		})
	}
}
