package handler

import (
	"log/slog"
	"net/http"

	models "visualexpr/internal/domain/models/expression"
	exprSvc "visualexpr/internal/domain/services/expression"
	"visualexpr/internal/handler/sse"
	"visualexpr/internal/httputil"
)

// SSEHandler handles Server-Sent Events for workspace changes
type SSEHandler struct {
	workspaceService exprSvc.WorkspaceService
	config           *sse.Config
	logger           *slog.Logger
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(workspaceService exprSvc.WorkspaceService, config *sse.Config, logger *slog.Logger) *SSEHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &SSEHandler{
		workspaceService: workspaceService,
		config:           config,
		logger:           logger,
	}
}

// StreamWorkspace handles GET /api/workspaces/{id}/events
//
// The stream opens with the current expression and constant palette, then
// relays every event the workspace's editor emits until the client goes away
// or the workspace is deleted.
func (h *SSEHandler) StreamWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	workspaceID := r.PathValue("id")
	ctx := r.Context()

	// Subscribe before reading the snapshot so no change falls in between.
	clientID, events, err := h.workspaceService.Subscribe(ctx, workspaceID, ownerID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer h.workspaceService.Unsubscribe(workspaceID, clientID)

	workspace, err := h.workspaceService.GetWorkspace(ctx, workspaceID, ownerID)
	if err != nil {
		handleError(w, err)
		return
	}

	stream, err := sse.NewStream(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With("workspace_id", workspaceID, "client_id", clientID)
	logger.Debug("SSE stream established", "remote_addr", r.RemoteAddr)

	for _, event := range []models.Event{
		models.NewChangedEvent(workspace.Evaluation),
		{Name: models.EventConstantsChanged, Data: models.ConstantsPayload{Constants: workspace.Settings.Constants}},
	} {
		msg, err := models.FormatSSE(event)
		if err != nil {
			logger.Error("failed to format snapshot event", "error", err)
			return
		}
		if err := stream.WriteMessage(msg); err != nil {
			logger.Debug("client disconnected during snapshot", "error", err)
			return
		}
	}

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	keepAliveStopped := keepAlive.Start(stream, logger)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("client disconnected")
			return

		case <-keepAliveStopped:
			return

		case msg, ok := <-events:
			if !ok {
				// Hub closed: the workspace was deleted.
				logger.Debug("event channel closed, ending stream")
				return
			}
			if err := stream.WriteMessage(msg); err != nil {
				logger.Debug("client disconnected during event write", "error", err)
				return
			}
		}
	}
}
