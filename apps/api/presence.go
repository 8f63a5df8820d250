package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myst-6/messaging/pkg/presence"
)

// presenceHandler answers /rooms/{id}/users from the Redis presence mirror.
func presenceHandler(mirror *presence.Mirror) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Path: /rooms/{id}/users
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) < 4 || pathParts[3] != "users" {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		roomID := pathParts[2]

		users, err := mirror.Members(r.Context(), roomID)
		if err != nil {
			slog.Error("fetch mirrored presence", "room", roomID, "error", err)
			http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
			return
		}
		if users == nil {
			users = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(users)
	}
}
