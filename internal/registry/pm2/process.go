package pm2

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// processDescription is the subset of a getMonitorData entry we read.
type processDescription struct {
	Name  string `json:"name"`
	PID   int    `json:"pid"`
	PMID  int    `json:"pm_id"`
	Monit struct {
		Memory int64   `json:"memory"`
		CPU    float64 `json:"cpu"`
	} `json:"monit"`
	Env processEnv `json:"pm2_env"`
}

type processEnv struct {
	Status           string     `json:"status"`
	PMUptime         int64      `json:"pm_uptime"`
	RestartTime      int        `json:"restart_time"`
	PORT             flexString `json:"PORT"`
	Port             flexString `json:"port"`
	PMExecPath       string     `json:"pm_exec_path"`
	Script           string     `json:"script"`
	Instances        flexInt    `json:"instances"`
	ExecMode         string     `json:"exec_mode"`
	NodeVersion      string     `json:"node_version"`
	CreatedAt        int64      `json:"created_at"`
	UnstableRestarts int        `json:"unstable_restarts"`
}

// flexString accepts a JSON string or number; env values like PORT come
// through as either depending on how the app was started.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexInt accepts a number or a numeric string; "max" and other words
// decode to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

func (p processDescription) info(now time.Time) registry.ProcessInfo {
	status := registry.Status(p.Env.Status)
	if status == "" {
		status = registry.StatusUnknown
	}

	var uptime int64
	if p.Env.PMUptime > 0 {
		uptime = now.UnixMilli() - p.Env.PMUptime
	}

	port := string(p.Env.PORT)
	if port == "" {
		port = string(p.Env.Port)
	}
	script := p.Env.PMExecPath
	if script == "" {
		script = p.Env.Script
	}
	instances := int(p.Env.Instances)
	if instances == 0 {
		instances = 1
	}
	execMode := p.Env.ExecMode
	if execMode == "" {
		execMode = "fork"
	}

	return registry.ProcessInfo{
		Name:             p.Name,
		PID:              p.PID,
		RegistryID:       p.PMID,
		Status:           status,
		MemoryBytes:      p.Monit.Memory,
		CPUPercent:       p.Monit.CPU,
		UptimeMs:         uptime,
		RestartCount:     p.Env.RestartTime,
		Port:             port,
		ScriptPath:       script,
		Instances:        instances,
		ExecMode:         execMode,
		NodeVersion:      p.Env.NodeVersion,
		CreatedAt:        p.Env.CreatedAt,
		UnstableRestarts: p.Env.UnstableRestarts,
	}
}
