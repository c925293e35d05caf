// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
)

// HealthController handles health check endpoints.
type HealthController struct {
	localHealthChecker  func() bool
	remoteHealthChecker func() bool
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	LocalDatabase  string `json:"local_database"`
	RemoteDatabase string `json:"remote_database"`
	Timestamp      string `json:"timestamp"`
}

// NewHealthController creates a new health controller instance.
func NewHealthController(localHealthChecker, remoteHealthChecker func() bool) *HealthController {
	return &HealthController{
		localHealthChecker:  localHealthChecker,
		remoteHealthChecker: remoteHealthChecker,
	}
}

// Check handles GET /health requests.
// It reports both stores; a sync cannot run unless both are connected.
func (h *HealthController) Check(c *gin.Context) {
	local := checkStatus(h.localHealthChecker)
	remote := checkStatus(h.remoteHealthChecker)

	response := HealthResponse{
		Status:         "ok",
		LocalDatabase:  local,
		RemoteDatabase: remote,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if local != statusConnected || remote != statusConnected {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}

func checkStatus(checker func() bool) string {
	if checker != nil && checker() {
		return statusConnected
	}
	return statusDisconnected
}
