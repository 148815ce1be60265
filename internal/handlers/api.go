package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
)

// SystemHandler serves health and version endpoints.
type SystemHandler struct {
	storageType      string
	lookupConfigured bool
	logger           arbor.ILogger
}

// NewSystemHandler creates a SystemHandler. lookupConfigured reports whether a
// language model provider is wired for external lookups.
func NewSystemHandler(config *common.Config, lookupConfigured bool, logger arbor.ILogger) *SystemHandler {
	storageType := config.Storage.Type
	if storageType == "" {
		storageType = "json"
	}
	return &SystemHandler{
		storageType:      storageType,
		lookupConfigured: lookupConfigured,
		logger:           logger,
	}
}

// VersionHandler handles GET /api/version
func (h *SystemHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler handles GET /api/health
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	lookup := "configured"
	if !h.lookupConfigured {
		lookup = "unavailable"
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.storageType,
		"lookup":  lookup,
	})
}

// NotFoundHandler handles unknown paths with a JSON 404
func (h *SystemHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"status": "error",
		"error":  "Not Found",
		"path":   r.URL.Path,
	})
}
