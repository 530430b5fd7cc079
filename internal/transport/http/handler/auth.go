package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/chatgate/internal/auth"
	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// checkRequest is the POST /auth/check body.
type checkRequest struct {
	UserID       int64  `json:"userId"`
	SessionToken string `json:"sessionToken"`
}

// AuthCheck validates a {userId, sessionToken} pair against the stored
// session. Wrong token, unknown user and malformed body all answer the
// same 401 {"valid":false}.
func (h *Repo) AuthCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		return
	}

	decision := h.Validator.Validate(auth.SessionCredential(req.UserID, req.SessionToken), "")
	if !decision.Authorized {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// loginRequest is the POST /auth/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the fresh session token.
type loginResponse struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	SessionToken string `json:"sessionToken"`
}

// Login verifies a username/password pair and issues a fresh session
// token, replacing any previous one for the user.
func (h *Repo) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeUnauthorized(w)
		return
	}

	user, err := h.Storage.GetUserByUsername(req.Username)
	if err != nil {
		if err == storage.ErrNotFound {
			// Indistinguishable from a wrong password
			writeUnauthorized(w)
			return
		}
		h.Logger.Error("login lookup failed", "error", err)
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("internal server error"))
		return
	}

	valid, err := storage.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeUnauthorized(w)
		return
	}

	token := uuid.New().String()
	if err := h.Storage.UpdateSession(user.ID, token, time.Now()); err != nil {
		h.Logger.Error("failed to store session", "error", err)
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("internal server error"))
		return
	}
	// The previous token must stop working immediately, not when the
	// cached validation expires
	h.Validator.InvalidateSession(user.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		SessionToken: token,
	})
}
