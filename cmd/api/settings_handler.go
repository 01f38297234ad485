package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds runtime-configurable assistant settings
type RuntimeConfig struct {
	GeminiModel         string `json:"gemini_model"`
	SyncIntervalMinutes int    `json:"sync_interval_minutes"`
}

var (
	runtimeConfig     RuntimeConfig
	runtimeConfigLock sync.RWMutex
	// notified when the sync interval changes; nil when no scheduler runs
	onSyncIntervalChange func(time.Duration)
)

// InitRuntimeConfig initializes runtime config from static config
func InitRuntimeConfig(geminiModel string, syncInterval time.Duration, intervalChanged func(time.Duration)) {
	runtimeConfigLock.Lock()
	defer runtimeConfigLock.Unlock()
	runtimeConfig = RuntimeConfig{
		GeminiModel:         geminiModel,
		SyncIntervalMinutes: int(syncInterval / time.Minute),
	}
	onSyncIntervalChange = intervalChanged
}

// GetRuntimeGeminiModel returns the model the assistant currently uses
func GetRuntimeGeminiModel() string {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.GeminiModel
}

// UpdateAssistantSettingsRequest represents the request body for updating assistant settings
type UpdateAssistantSettingsRequest struct {
	GeminiModel         string `json:"gemini_model,omitempty"`
	SyncIntervalMinutes int    `json:"sync_interval_minutes,omitempty"`
}

// GetAssistantSettings returns current assistant configuration
// GET /api/settings/assistant
func GetAssistantSettings(c *gin.Context) {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"gemini_model":          runtimeConfig.GeminiModel,
		"sync_interval_minutes": runtimeConfig.SyncIntervalMinutes,
	})
}

// UpdateAssistantSettings updates assistant configuration at runtime
// PUT /api/settings/assistant
func UpdateAssistantSettings(c *gin.Context) {
	var req UpdateAssistantSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncIntervalMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_interval_minutes must be positive"})
		return
	}

	runtimeConfigLock.Lock()
	if req.GeminiModel != "" {
		runtimeConfig.GeminiModel = req.GeminiModel
	}
	var notify func(time.Duration)
	if req.SyncIntervalMinutes > 0 {
		runtimeConfig.SyncIntervalMinutes = req.SyncIntervalMinutes
		notify = onSyncIntervalChange
	}
	current := runtimeConfig
	runtimeConfigLock.Unlock()

	if notify != nil {
		notify(time.Duration(req.SyncIntervalMinutes) * time.Minute)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":               "Assistant settings updated successfully",
		"gemini_model":          current.GeminiModel,
		"sync_interval_minutes": current.SyncIntervalMinutes,
	})
}

// TestAssistantModel verifies the configured model answers a trivial prompt
// POST /api/settings/assistant/test
func (h *Handler) TestAssistantModel(c *gin.Context) {
	var req struct {
		GeminiModel string `json:"gemini_model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// If no body provided, use current config
		req.GeminiModel = GetRuntimeGeminiModel()
	}
	if req.GeminiModel == "" {
		req.GeminiModel = GetRuntimeGeminiModel()
	}

	reply, err := h.geminiService.GenerateReply(c.Request.Context(), req.GeminiModel, "Reply with the single word: ok", "")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     fmt.Sprintf("model check failed: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":    true,
		"gemini_model": req.GeminiModel,
		"reply":        reply,
	})
}
