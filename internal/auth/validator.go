package auth

import (
	"crypto/subtle"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/chatgate/internal/config"
	"github.com/mandalnilabja/chatgate/internal/storage"
)

// sessionCacheTTL bounds how long a validated session token is trusted
// without re-reading the user store.
const sessionCacheTTL = 5 * time.Minute

// Decision is the result of validating a credential. Rejections carry
// an internal reason for logging only; callers must present every
// rejection identically to prevent user-existence enumeration.
type Decision struct {
	Authorized bool

	// Identity names the authorized principal (username for sessions,
	// masked key for API keys). Empty on rejection.
	Identity string

	// Reason explains a rejection. Never sent to clients.
	Reason string
}

// CachedSession holds a validated session token for the cache.
type CachedSession struct {
	Token      string
	Username   string
	ValidUntil time.Time
}

// keyRule is the compiled per-provider API key policy.
type keyRule struct {
	prefix string
	keys   map[string]struct{}
}

// UserStore is the read-only slice of the storage layer the Validator
// needs.
type UserStore interface {
	GetUserByID(id int64) (*storage.User, error)
}

// Validator authorizes requests against the user store and the
// per-provider client key allow-lists. Read-only; it never mutates the
// store and never retries a failed check.
type Validator struct {
	store  UserStore
	rules  map[string]keyRule
	cache  *ristretto.Cache[string, *CachedSession]
	logger *slog.Logger
}

// NewValidator builds a Validator from the provider configuration.
// cache may be nil to disable session caching (tests).
func NewValidator(store UserStore, providers []config.ProviderConfig, cache *ristretto.Cache[string, *CachedSession], logger *slog.Logger) *Validator {
	rules := make(map[string]keyRule, len(providers))
	for _, p := range providers {
		rule := keyRule{prefix: p.ClientKeyPrefix, keys: make(map[string]struct{}, len(p.ClientKeys))}
		for _, k := range p.ClientKeys {
			rule.keys[k] = struct{}{}
		}
		rules[p.ID] = rule
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{
		store:  store,
		rules:  rules,
		cache:  cache,
		logger: logger,
	}
}

// Validate authorizes a credential for the named provider. providerID
// is only consulted for API key credentials; session tokens are valid
// across providers. Malformed or missing input is a rejection, never an
// error.
func (v *Validator) Validate(cred Credential, providerID string) Decision {
	switch cred.Kind {
	case CredentialSession:
		return v.validateSession(cred)
	case CredentialAPIKey:
		return v.validateAPIKey(cred, providerID)
	default:
		return v.reject("no credential supplied")
	}
}

// validateSession checks a (userId, sessionToken) pair against the
// stored session. Exact string equality, no normalization.
func (v *Validator) validateSession(cred Credential) Decision {
	if cred.UserID == 0 || cred.Token == "" {
		return v.reject("incomplete session credential")
	}

	// Cache holds positive results only
	if v.cache != nil {
		if cached, found := v.cache.Get(sessionCacheKey(cred.UserID)); found {
			if time.Now().Before(cached.ValidUntil) && tokensEqual(cached.Token, cred.Token) {
				return Decision{Authorized: true, Identity: cached.Username}
			}
		}
	}

	user, err := v.store.GetUserByID(cred.UserID)
	if err != nil {
		// Unknown user and wrong token must be indistinguishable to
		// the caller; the distinction lives in logs only.
		if err == storage.ErrNotFound {
			return v.reject("unknown user")
		}
		v.logger.Error("session lookup failed", "error", err)
		return v.reject("store error")
	}

	if user.SessionToken == "" || !tokensEqual(user.SessionToken, cred.Token) {
		return v.reject("session token mismatch")
	}

	if v.cache != nil {
		v.cache.Set(sessionCacheKey(cred.UserID), &CachedSession{
			Token:      user.SessionToken,
			Username:   user.Username,
			ValidUntil: time.Now().Add(sessionCacheTTL),
		}, 1)
	}

	return Decision{Authorized: true, Identity: user.Username}
}

// InvalidateSession drops the cached validation for a user. Must be
// called whenever the stored token changes, otherwise the old token
// would stay accepted until the cache entry expires.
func (v *Validator) InvalidateSession(userID int64) {
	if v.cache != nil {
		v.cache.Del(sessionCacheKey(userID))
	}
}

// validateAPIKey checks a caller key against the provider's allow-list.
func (v *Validator) validateAPIKey(cred Credential, providerID string) Decision {
	rule, ok := v.rules[providerID]
	if !ok {
		return v.reject("unknown provider for API key")
	}
	if len(rule.keys) == 0 {
		return v.reject("API key auth disabled for provider")
	}
	if rule.prefix != "" && !strings.HasPrefix(cred.APIKey, rule.prefix) {
		return v.reject("API key format mismatch")
	}
	if _, ok := rule.keys[cred.APIKey]; !ok {
		return v.reject("API key not in allow-list")
	}
	return Decision{Authorized: true, Identity: maskKey(cred.APIKey)}
}

// reject logs the internal reason and returns a rejection.
func (v *Validator) reject(reason string) Decision {
	v.logger.Debug("credential rejected", "reason", reason)
	return Decision{Reason: reason}
}

func sessionCacheKey(userID int64) string {
	return "session:" + strconv.FormatInt(userID, 10)
}

// tokensEqual compares tokens in constant time.
func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// maskKey keeps the first 8 characters of a key for identification.
func maskKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
