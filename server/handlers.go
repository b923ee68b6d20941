package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/crosscribe/comparison"
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/session"
	"github.com/kbukum/crosscribe/validation"
)

// Handlers holds the HTTP handlers for the crosscribe API.
type Handlers struct {
	sessions    *session.Store
	comparisons *comparison.Service
	log         *logger.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(sessions *session.Store, comparisons *comparison.Service, log *logger.Logger) *Handlers {
	return &Handlers{
		sessions:    sessions,
		comparisons: comparisons,
		log:         log.WithComponent("handlers"),
	}
}

// RegisterRoutes mounts the v1 API routes on the engine.
func (h *Handlers) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	v1.POST("/sessions/:id/fragments", h.submitFragment)
	v1.POST("/sessions/:id/finalize", h.finalizeSession)
	v1.POST("/comparisons", h.runComparison)
}

type fragmentRequest struct {
	// Index is the fragment's position within the session.
	Index uint32 `json:"index"`
	// Payload is the fragment audio bytes, base64-encoded on the wire.
	Payload []byte `json:"payload" validate:"required"`
	// DeviceID identifies the uploading device.
	DeviceID string `json:"device_id" validate:"required"`
}

type fragmentResponse struct {
	Accepted bool   `json:"accepted"`
	Index    uint32 `json:"index"`
}

// submitFragment accepts one uploaded fragment. Re-sending an identical
// fragment is a no-op success so device-side retries are safe.
func (h *Handlers) submitFragment(c *gin.Context) {
	var req fragmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}

	sessionID := c.Param("id")
	if err := h.sessions.Submit(c.Request.Context(), sessionID, req.Index, req.Payload, req.DeviceID); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, fragmentResponse{Accepted: true, Index: req.Index})
}

type finalizeRequest struct {
	// FragmentCount is the total number of fragments the device sent.
	// Zero means unknown; the highest received index is used instead.
	FragmentCount uint32 `json:"fragment_count"`
	// DurationSec is the device-declared recording duration.
	DurationSec float64 `json:"duration_sec" validate:"omitempty,min=0"`
}

// finalizeSession reassembles the session's fragments into a recording.
// Finalizing an already complete session returns the same recording again.
func (h *Handlers) finalizeSession(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}

	sessionID := c.Param("id")
	result, err := h.sessions.Finalize(c.Request.Context(), sessionID, req.FragmentCount, req.DurationSec)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, result)
}

type comparisonRequest struct {
	// RecordingRef is the stored recording to compare, as returned by
	// finalize.
	RecordingRef string `json:"recording_ref" validate:"required"`

	comparison.Options
}

// runComparison executes one comparison pipeline run. A partially failed run
// still responds 200 with explicit per-segment and per-backend error entries.
func (h *Handlers) runComparison(c *gin.Context) {
	var req comparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}

	result, err := h.comparisons.RunComparison(c.Request.Context(), req.RecordingRef, req.Options)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, result)
}
