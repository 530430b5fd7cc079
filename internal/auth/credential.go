// Package auth decides whether an inbound request is authorized, given
// either a stored session token or a provider API key.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// CredentialKind tags the variant carried by a Credential.
type CredentialKind int

const (
	// CredentialNone means no recognizable credential was supplied.
	CredentialNone CredentialKind = iota
	// CredentialSession is a {userId, sessionToken} pair checked
	// against the user store.
	CredentialSession
	// CredentialAPIKey is a caller-supplied provider API key checked
	// against the per-provider allow-list.
	CredentialAPIKey
)

// ErrNoCredential is returned when a request carries no credential that
// fits either known shape.
var ErrNoCredential = errors.New("no credential supplied")

// Credential is a tagged variant: exactly one of the session fields or
// the APIKey field is populated, per Kind. Constructed per request at
// the boundary and discarded afterwards; never persisted.
type Credential struct {
	Kind CredentialKind

	// Session variant
	UserID int64
	Token  string

	// API key variant
	APIKey string
}

// userInfo is the JSON shape accepted in the X-User-Info header.
type userInfo struct {
	UserID       int64  `json:"userId"`
	SessionToken string `json:"sessionToken"`
}

// ParseRequest extracts a Credential from request headers. An
// Authorization bearer token is treated as a provider API key; an
// X-User-Info header carrying {userId, sessionToken} is treated as a
// session credential. Anything else is ErrNoCredential; malformed
// input is never a server error.
func ParseRequest(r *http.Request) (Credential, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if key, ok := strings.CutPrefix(auth, "Bearer "); ok && key != "" {
			return Credential{Kind: CredentialAPIKey, APIKey: key}, nil
		}
		return Credential{}, ErrNoCredential
	}

	if raw := r.Header.Get("X-User-Info"); raw != "" {
		var info userInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return Credential{}, ErrNoCredential
		}
		if info.UserID == 0 || info.SessionToken == "" {
			return Credential{}, ErrNoCredential
		}
		return Credential{
			Kind:   CredentialSession,
			UserID: info.UserID,
			Token:  info.SessionToken,
		}, nil
	}

	return Credential{}, ErrNoCredential
}

// SessionCredential builds the session variant directly, for handlers
// that read {userId, sessionToken} from a request body.
func SessionCredential(userID int64, token string) Credential {
	return Credential{Kind: CredentialSession, UserID: userID, Token: token}
}
