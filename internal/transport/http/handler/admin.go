package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// userNotFoundMessage is returned when an admin lookup misses.
const userNotFoundMessage = "未找到用戶"

// CurrentUser looks up the account named in the X-User-Info header
// (JSON {"username": ...}) and returns the safe user row.
func (h *Repo) CurrentUser(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("X-User-Info")
	if raw == "" {
		writeUnauthorized(w)
		return
	}

	var info struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil || info.Username == "" {
		// Malformed header is a rejection, not a server error
		writeUnauthorized(w)
		return
	}

	user, err := h.Storage.GetUserByUsername(info.Username)
	if err != nil {
		if err == storage.ErrNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": userNotFoundMessage})
			return
		}
		h.Logger.Error("user lookup failed", "error", err)
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, user.ToPreview())
}
