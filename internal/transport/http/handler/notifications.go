package handler

import (
	"net/http"
	"strconv"

	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// notificationsResponse echoes the executed query and parameters
// alongside the results, matching the debug contract.
type notificationsResponse struct {
	Notifications []*storage.Notification `json:"notifications"`
	Users         []*storage.UserPreview  `json:"users"`
	Query         string                  `json:"query"`
	Params        []any                   `json:"params"`
}

// DebugNotifications returns notifications addressed to a user plus
// broadcasts, with the sender rows and the underlying query echoed for
// debugging.
func (h *Repo) DebugNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("userId must be an integer"))
		return
	}

	notifications, err := h.Storage.ListNotifications(userID)
	if err != nil {
		h.Logger.Error("notification query failed", "error", err)
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("internal server error"))
		return
	}

	// Collect each distinct sender once
	seen := make(map[int64]bool)
	users := []*storage.UserPreview{}
	for _, n := range notifications {
		if seen[n.SenderID] {
			continue
		}
		seen[n.SenderID] = true
		if sender, err := h.Storage.GetUserByID(n.SenderID); err == nil {
			users = append(users, sender.ToPreview())
		}
	}

	if notifications == nil {
		notifications = []*storage.Notification{}
	}

	writeJSON(w, http.StatusOK, notificationsResponse{
		Notifications: notifications,
		Users:         users,
		Query:         storage.NotificationsQuery,
		Params:        []any{userID},
	})
}
