// Package handlers contains the gin handlers of the HTTP adapter.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// BuildInfo describes the running binary. Version, Commit and BuildTime are
// injected with -ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills in the Go version of the running binary.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime, GoVersion: runtime.Version()}
}

// HealthHandler serves the operational endpoints under /-/.
// They sit outside the /api envelope and carry no authentication.
type HealthHandler struct {
	registry ports.HealthRegistry
	build    BuildInfo
	started  time.Time
	metrics  http.Handler
}

// NewHealthHandler creates the handler. A nil registry reports ready with no checks.
func NewHealthHandler(registry ports.HealthRegistry, build BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry: registry,
		build:    build,
		started:  time.Now(),
		metrics:  promhttp.Handler(),
	}
}

// WithGatherer serves /-/metrics from g instead of the default registry.
func (h *HealthHandler) WithGatherer(g prometheus.Gatherer) *HealthHandler {
	h.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return h
}

// Liveness handles GET /-/live. It never checks dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type readiness struct {
	Status ports.HealthStatus            `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness handles GET /-/ready. Unhealthy dependencies answer 503;
// a degraded service still takes traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.registry == nil {
		c.JSON(http.StatusOK, readiness{Status: ports.HealthStatusHealthy})
		return
	}

	result := h.registry.CheckAll(c.Request.Context())

	code := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, readiness{Status: result.Status, Checks: result.Checks})
}

type buildResponse struct {
	BuildInfo

	StartedAt time.Time `json:"startedAt"`
	Uptime    string    `json:"uptime"`
}

// BuildInfoHandler handles GET /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, buildResponse{
		BuildInfo: h.build,
		StartedAt: h.started.UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// RegisterProbes mounts live, ready, build and metrics under /-/.
func (h *HealthHandler) RegisterProbes(engine *gin.Engine) {
	ops := engine.Group("/-")
	ops.GET("/live", h.Liveness)
	ops.HEAD("/live", h.Liveness)
	ops.GET("/ready", h.Readiness)
	ops.GET("/build", h.BuildInfoHandler)
	ops.GET("/metrics", gin.WrapH(h.metrics))
}
