package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/logs"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
	"github.com/MrSnakeDoc/bigbrother/internal/registry/registrytest"
	"github.com/MrSnakeDoc/bigbrother/internal/store/memory"
	"github.com/MrSnakeDoc/bigbrother/internal/stream"
)

const (
	testSecret   = "test-signing-key-for-http-tests"
	testUser     = "admin"
	testPassword = "correct"
	frontendURL  = "http://dashboard.local:3000"
)

type fakeSweeper struct {
	mu      sync.Mutex
	pending bool
}

func (f *fakeSweeper) Trigger() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return false
	}
	f.pending = true
	return true
}

type ServerPublicTestSuite struct {
	suite.Suite

	store   *memory.RefreshStore
	svc     *auth.Service
	reg     *registrytest.Registry
	sweeper *fakeSweeper
	pm2Dir  string
	d       deps.Deps
	srv     *httptest.Server
}

func TestServerPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ServerPublicTestSuite))
}

func (s *ServerPublicTestSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	s.Require().NoError(err)

	s.store = memory.NewRefreshStore()
	s.svc, err = auth.NewService(auth.Options{
		Secret:     testSecret,
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Issuer:     "big-brother-api",
		Audience:   "big-brother-dashboard",
	}, auth.NewPrincipal(testUser, string(hash)), s.store, logger.NewNop())
	s.Require().NoError(err)

	s.reg = &registrytest.Registry{
		Processes: []registry.ProcessInfo{
			{Name: "myapp", PID: 4242, Status: registry.StatusOnline},
			{Name: "worker", PID: 4243, Status: registry.StatusStopped},
		},
	}
	s.sweeper = &fakeSweeper{}

	root := s.T().TempDir()
	s.pm2Dir = filepath.Join(root, "pm2", "logs")
	s.Require().NoError(os.MkdirAll(s.pm2Dir, 0o755))
	locator := logs.NewLocator(logs.Dirs{
		Development: []string{filepath.Join(root, "logs")},
		PM2:         []string{s.pm2Dir},
	}, false)
	logSvc := logs.NewService(locator, logs.NewReader(500, 2000), s.reg, logger.NewNop())

	s.d = deps.Deps{
		Logger:          logger.NewNop(),
		StartTime:       time.Now(),
		Version:         "test",
		Environment:     "development",
		AllowedCIDRS:    []string{"127.0.0.1", "::1"},
		FrontendURL:     frontendURL,
		RateLimitBurst:  1000,
		RateLimitPerMin: 1000,
		MaxBodyBytes:    1 << 16,
		RequestTimeout:  5 * time.Second,
		Auth:            s.svc,
		Registry:        s.reg,
		Logs:            logSvc,
		Streams:         stream.NewController(s.reg, nil, 0, logger.NewNop()),
		Sweeper:         s.sweeper,
	}
	s.srv = httptest.NewServer(httpserver.NewRouter(s.d))
}

func (s *ServerPublicTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ServerPublicTestSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (s *ServerPublicTestSuite) login() (access, refresh string) {
	resp, body := s.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": testUser, "password": testPassword})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	tokens := body["tokens"].(map[string]any)
	return tokens["accessToken"].(string), tokens["refreshToken"].(string)
}

func (s *ServerPublicTestSuite) writePM2Log(name string, lines int) {
	var b strings.Builder
	for i := range lines {
		fmt.Fprintf(&b, "0|myapp    | 2026-05-01T10:00:%02d: line %d\n", i, i)
	}
	s.Require().NoError(os.WriteFile(filepath.Join(s.pm2Dir, name), []byte(b.String()), 0o644))
}

func (s *ServerPublicTestSuite) TestLoginValidCredentials() {
	resp, body := s.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": testUser, "password": testPassword})

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])
	s.Equal("Login successful", body["message"])

	tokens := body["tokens"].(map[string]any)
	s.Equal("30m", tokens["accessTokenExpiry"])
	s.Equal("7d", tokens["refreshTokenExpiry"])

	claims, err := s.svc.Verify(context.Background(), tokens["accessToken"].(string), auth.KindAccess)
	s.Require().NoError(err)
	s.Equal(auth.AdminID, claims.UserID)
	s.Equal(1, s.store.Count())
}

func (s *ServerPublicTestSuite) TestLoginWrongPassword() {
	resp, body := s.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": testUser, "password": "wrong"})

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal(false, body["success"])
	s.Equal("Authentication failed", body["error"])
	s.Equal("Invalid credentials", body["message"])
	s.NotContains(body, "tokens")
	s.Equal(0, s.store.Count())
}

func (s *ServerPublicTestSuite) TestLoginValidation() {
	tests := []struct {
		name string
		body any
		want string
	}{
		{name: "missing password", body: map[string]string{"username": testUser}, want: "Username and password are required"},
		{name: "empty body", body: nil, want: "Username and password are required"},
		{name: "username too long", body: map[string]string{"username": strings.Repeat("a", 200), "password": "x"}, want: "Invalid credentials format"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, body := s.do(http.MethodPost, "/api/auth/login", "", tt.body)
			s.Equal(http.StatusBadRequest, resp.StatusCode)
			s.Equal(tt.want, body["error"])
			s.Equal(string(apperr.KindValidation), body["code"])
		})
	}
}

func (s *ServerPublicTestSuite) TestRefreshThenLogoutRevokes() {
	_, refresh := s.login()

	resp, body := s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(body["accessToken"])
	s.Equal("Token refreshed successfully", body["message"])

	resp, _ = s.do(http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": refresh})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(0, s.store.Count())

	resp, body = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal(string(apperr.KindRevokedToken), body["code"])
	s.Equal("Token refresh failed", body["error"])
}

func (s *ServerPublicTestSuite) TestRefreshRequiresToken() {
	resp, body := s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Refresh token is required", body["error"])
}

func (s *ServerPublicTestSuite) TestLogoutWithoutToken() {
	s.login()

	resp, body := s.do(http.MethodPost, "/api/auth/logout", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])
	s.Equal("Logout successful", body["message"])
	s.Equal(1, s.store.Count())
}

func (s *ServerPublicTestSuite) TestMe() {
	resp, body := s.do(http.MethodGet, "/api/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal(false, body["success"])
	s.Equal(string(apperr.KindAuthentication), body["code"])

	access, _ := s.login()
	resp, body = s.do(http.MethodGet, "/api/auth/me", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["authenticated"])
	s.Equal(testUser, body["user"].(map[string]any)["username"])
}

func (s *ServerPublicTestSuite) TestRefreshTokenRejectedAsAccess() {
	_, refresh := s.login()
	resp, body := s.do(http.MethodGet, "/api/auth/me", refresh, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Invalid token type", body["message"])
}

func (s *ServerPublicTestSuite) TestVerify() {
	access, _ := s.login()

	resp, body := s.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": access})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["valid"])
	s.Equal(testUser, body["user"].(map[string]any)["username"])

	resp, body = s.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": "garbage"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal(false, body["valid"])
	s.Equal("Invalid token", body["error"])

	resp, _ = s.do(http.MethodPost, "/api/auth/verify", "", map[string]string{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestAuthStatus() {
	resp, body := s.do(http.MethodGet, "/api/auth/status", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("configured", body["status"])
	s.Equal(true, body["configured"].(map[string]any)["isFullyConfigured"])
}

func (s *ServerPublicTestSuite) TestSweepTrigger() {
	resp, _ := s.do(http.MethodPost, "/api/auth/sweep", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	access, _ := s.login()
	resp, _ = s.do(http.MethodPost, "/api/auth/sweep", access, nil)
	s.Equal(http.StatusAccepted, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/auth/sweep", access, nil)
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestHistoricalWindow() {
	s.writePM2Log("myapp-out-0.log", 10)
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/logs/myapp/historical?lines=2000&offset=0", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(float64(10), body["totalLines"])
	s.Equal(float64(10), body["returnedLines"])
	s.Equal(false, body["hasMore"])
	s.Len(body["logs"], 10)

	resp, body = s.do(http.MethodGet, "/api/logs/myapp/historical?lines=3&offset=2", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(float64(3), body["returnedLines"])
	s.Equal(true, body["hasMore"])
}

func (s *ServerPublicTestSuite) TestHistoricalNotFound() {
	access, _ := s.login()
	resp, body := s.do(http.MethodGet, "/api/logs/ghost/historical", access, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("PM2 log file not found", body["error"])
}

func (s *ServerPublicTestSuite) TestHistoricalRejectsQueryToken() {
	s.writePM2Log("myapp-out-0.log", 3)
	access, _ := s.login()
	resp, _ := s.do(http.MethodGet, "/api/logs/myapp/historical?token="+access, "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestFrontendLogsGuidance() {
	access, _ := s.login()
	resp, body := s.do(http.MethodGet, "/api/frontend-logs/myapp", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])
	s.Equal(logs.FileProcessInfo, body["file"])
	s.NotEmpty(body["logs"])
}

func (s *ServerPublicTestSuite) TestStreamWithQueryTokenBusUnavailable() {
	s.reg.OpenErr = registry.MapError("openEventBus", errors.New("dial unix pub.sock: connect ENOENT"))
	access, _ := s.login()

	resp, err := s.srv.Client().Get(s.srv.URL + "/api/logs/myapp?token=" + access)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var msgs []stream.Message
	for _, line := range strings.Split(string(raw), "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var m stream.Message
			s.Require().NoError(json.Unmarshal([]byte(data), &m))
			msgs = append(msgs, m)
		}
	}
	s.Require().Len(msgs, 2)
	s.Equal(stream.TypeConnected, msgs[0].Type)
	s.Equal(stream.TypeError, msgs[1].Type)
}

func (s *ServerPublicTestSuite) TestStreamRequiresToken() {
	resp, body := s.do(http.MethodGet, "/api/logs/myapp", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal(false, body["success"])
}

func (s *ServerPublicTestSuite) TestHistoricalRejectsUnsafeName() {
	access, _ := s.login()
	resp, body := s.do(http.MethodGet, "/api/logs/..%2Fetc/historical", access, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(string(apperr.KindValidation), body["code"])

	resp, _ = s.do(http.MethodGet, "/api/frontend-logs/api%20server", access, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestStreamAcceptsAnyProcessName() {
	s.reg.OpenErr = registry.MapError("openEventBus", errors.New("dial unix pub.sock: connect ENOENT"))
	access, _ := s.login()

	resp, err := s.srv.Client().Get(s.srv.URL + "/api/logs/api%20server?token=" + access)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(raw), "Connected to logs for api server")
}

func (s *ServerPublicTestSuite) TestApps() {
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/apps", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(float64(2), body["count"])

	resp, body = s.do(http.MethodGet, "/api/apps/myapp", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("myapp", body["app"].(map[string]any)["name"])

	resp, _ = s.do(http.MethodGet, "/api/apps/ghost", access, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestAppsWithNamesOutsidePathCharset() {
	s.reg.Processes = append(s.reg.Processes,
		registry.ProcessInfo{Name: "api server", PID: 5001, Status: registry.StatusOnline},
		registry.ProcessInfo{Name: "api:prod", PID: 5002, Status: registry.StatusOnline},
	)
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/apps/api%20server", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("api server", body["app"].(map[string]any)["name"])

	resp, body = s.do(http.MethodGet, "/api/apps/api:prod", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("api:prod", body["app"].(map[string]any)["name"])

	resp, _ = s.do(http.MethodPost, "/api/apps/api%20server/restart", access, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodPost, "/api/apps/api:prod/stop", access, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal([]string{"api server"}, s.reg.Restarts)
	s.Equal([]string{"api:prod"}, s.reg.Stops)
}

func (s *ServerPublicTestSuite) TestSystemStats() {
	s.reg.Processes = []registry.ProcessInfo{
		{Name: "myapp", Status: registry.StatusOnline, MemoryBytes: 100, CPUPercent: 10, RestartCount: 2},
		{Name: "worker", Status: registry.StatusStopped, MemoryBytes: 50, CPUPercent: 0, RestartCount: 1},
		{Name: "api server", Status: registry.StatusOnline, MemoryBytes: 250, CPUPercent: 20, RestartCount: 0},
	}
	access, _ := s.login()

	resp, _ := s.do(http.MethodGet, "/api/dashboard/system-stats", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/api/dashboard/system-stats", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	s.Equal(float64(3), data["totalApps"])
	s.Equal(float64(2), data["onlineApps"])
	s.Equal(float64(400), data["totalMemory"])
	s.Equal(float64(10), data["avgCpu"])
	s.Equal(float64(3), data["totalRestarts"])
	s.GreaterOrEqual(data["uptime"].(float64), float64(0))
}

func (s *ServerPublicTestSuite) TestSystemStatsEmptyAndUnreachable() {
	s.reg.Processes = nil
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/dashboard/system-stats", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	s.Equal(float64(0), data["totalApps"])
	s.Equal(float64(0), data["avgCpu"])

	s.reg.ListErr = registry.MapError("list", errors.New("dial unix rpc.sock: connect ENOENT"))
	resp, body = s.do(http.MethodGet, "/api/dashboard/system-stats", access, nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	s.Equal("Failed to fetch system statistics", body["error"])
	s.Equal(registry.MsgDaemonNotRunning, body["message"])
}

func (s *ServerPublicTestSuite) TestAppsRegistryUnreachable() {
	s.reg.ListErr = registry.MapError("list", errors.New("dial unix rpc.sock: connect ENOENT"))
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/apps", access, nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	s.Equal(registry.MsgDaemonNotRunning, body["message"])
	s.Equal(string(apperr.KindRegistry), body["code"])
}

func (s *ServerPublicTestSuite) TestRestartAndStop() {
	access, _ := s.login()

	resp, body := s.do(http.MethodPost, "/api/apps/myapp/restart", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Application myapp restarted successfully", body["message"])
	s.Equal([]string{"myapp"}, s.reg.Restarts)

	resp, _ = s.do(http.MethodPost, "/api/apps/worker/stop", access, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal([]string{"worker"}, s.reg.Stops)

	resp, _ = s.do(http.MethodPost, "/api/apps/ghost/restart", access, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	s.reg.CmdErr = registry.CommandFailed("restart", "myapp", errors.New("script crashed on reload"))
	resp, body = s.do(http.MethodPost, "/api/apps/myapp/restart", access, nil)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.Equal(false, body["success"])
	s.Equal("REGISTRY_ERROR", body["code"])
	s.NotEmpty(body["debug"])
}

func (s *ServerPublicTestSuite) TestProductionHidesDebug() {
	s.srv.Close()
	s.d.Production = true
	s.srv = httptest.NewServer(httpserver.NewRouter(s.d))

	s.reg.CmdErr = registry.CommandFailed("restart", "myapp", errors.New("script crashed on reload"))
	access, _ := s.login()
	resp, body := s.do(http.MethodPost, "/api/apps/myapp/restart", access, nil)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.NotContains(body, "debug")
}

func (s *ServerPublicTestSuite) TestHealth() {
	resp, body := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("healthy", body["status"])
	s.Equal("development", body["environment"])

	resp, _ = s.do(http.MethodGet, "/api/health/components", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestComponents() {
	access, _ := s.login()

	resp, body := s.do(http.MethodGet, "/api/health/components", access, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("optimal", body["mode"])

	s.reg.PingErr = registry.MapError("ping", errors.New("connect ENOENT"))
	_, body = s.do(http.MethodGet, "/api/health/components", access, nil)
	s.Equal("degraded", body["mode"])
	comps := body["components"].(map[string]any)
	s.Equal(false, comps["registry"].(map[string]any)["ok"])
	s.Equal("memory", comps["redis"].(map[string]any)["mode"])
	s.Equal("disabled", comps["sink"].(map[string]any)["mode"])
}

func (s *ServerPublicTestSuite) TestProbes() {
	resp, body := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])

	resp, body = s.do(http.MethodGet, "/readyz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["ready"])

	resp, _ = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestProbesOutsideAllowedCIDRs() {
	s.srv.Close()
	s.d.AllowedCIDRS = []string{"10.0.0.0/8"}
	s.srv = httptest.NewServer(httpserver.NewRouter(s.d))

	resp, _ := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *ServerPublicTestSuite) TestCORSPreflight() {
	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/api/auth/login", nil)
	s.Require().NoError(err)
	req.Header.Set("Origin", frontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Equal(frontendURL, resp.Header.Get("Access-Control-Allow-Origin"))
	s.Equal("true", resp.Header.Get("Access-Control-Allow-Credentials"))
	s.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}
