package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/myst-6/messaging/pkg/auth"
	"github.com/myst-6/messaging/pkg/model"
	"github.com/myst-6/messaging/pkg/room"
	"github.com/myst-6/messaging/pkg/store"
)

// conversationHandlers exposes room metadata and the message log over HTTP,
// backed by the same coordinator instances that serve the websockets.
type conversationHandlers struct {
	manager *room.Manager
}

func (h *conversationHandlers) roomFrom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return nil, false
	}
	return h.manager.Get(conversationID), true
}

func (h *conversationHandlers) info(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFrom(w, r)
	if !ok {
		return
	}
	info, err := rm.Info(r.Context())
	if err != nil {
		http.Error(w, "Failed to load conversation info", http.StatusInternalServerError)
		return
	}
	writeJSON(w, info)
}

func (h *conversationHandlers) participants(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string][]string{"participants": rm.Participants()})
}

func (h *conversationHandlers) messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMessages(w, r)
	case http.MethodPost:
		h.postMessage(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *conversationHandlers) listMessages(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFrom(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", store.DefaultHistoryLimit)
	offset := queryInt(r, "offset", 0)

	messages, err := rm.Messages(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	writeJSON(w, map[string][]model.Message{"messages": messages})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// postMessage is the server-side send path: the message is appended and
// broadcast to connected participants exactly as a websocket send would be.
func (h *conversationHandlers) postMessage(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFrom(w, r)
	if !ok {
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := rm.Send(r.Context(), claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, room.ErrBadRequest) {
			http.Error(w, "Content is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to store message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
