package handler

import (
	"net/http"

	"github.com/mcoot/whotscan/internal/sse"
)

// EventsHandler streams game changes over SSE
type EventsHandler struct {
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{hubManager: hubManager}
}

// Stream handles GET /api/v1/games/{id}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager, h.hubManager.Acquire(id))
}
