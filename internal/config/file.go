package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort string           `toml:"server_port"`
	RateLimit  *int             `toml:"rate_limit"`
	Providers  []ProviderConfig `toml:"providers"`
}

// ProviderConfig declares one upstream model provider. Everything that
// differs between provider families (auth placement, path rewriting,
// extra headers, accepted client keys) is configuration, never code.
type ProviderConfig struct {
	// ID is the logical identifier used in /providers/{id}/... routes.
	ID string `toml:"id"`

	// BaseURL is the upstream base address, e.g. "https://api.openai.com".
	BaseURL string `toml:"base_url"`

	// APIKey is the secret injected on upstream requests.
	APIKey string `toml:"api_key"`

	// AuthScheme controls where APIKey is placed: "bearer" (default,
	// Authorization: Bearer <key>), "header" (AuthHeader: <key>) or
	// "query" (AuthHeader used as the query parameter name).
	AuthScheme string `toml:"auth_scheme"`

	// AuthHeader names the header or query parameter for non-bearer schemes.
	AuthHeader string `toml:"auth_header"`

	// PathPrefix is prepended to the inbound subpath when building the
	// upstream URL, e.g. "/openai/deployments/gpt-4o" for Azure.
	PathPrefix string `toml:"path_prefix"`

	// Query holds static query parameters added to every upstream call,
	// e.g. api-version = "2024-06-01" for Azure.
	Query map[string]string `toml:"query"`

	// ExtraHeaders are set verbatim on every upstream request.
	ExtraHeaders map[string]string `toml:"extra_headers"`

	// ClientKeys is the allow-list of caller API keys accepted for this
	// provider. Empty means API-key auth is disabled for the provider
	// and only session tokens are accepted.
	ClientKeys []string `toml:"client_keys"`

	// ClientKeyPrefix, if set, additionally requires caller keys to
	// start with this prefix before the allow-list is consulted.
	ClientKeyPrefix string `toml:"client_key_prefix"`
}

// ConfigPath returns the path to the config file (~/.chatgate/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# Chatgate Configuration
# server_port = ":8080"

# Requests per minute allowed per authenticated identity on proxy routes.
# 0 disables rate limiting.
# rate_limit = 0

# Upstream model providers, addressed as /providers/{id}/...

# [[providers]]
# id = "openai"
# base_url = "https://api.openai.com"
# api_key = "sk-..."
# path_prefix = "/v1"
# client_key_prefix = "cg_"
# client_keys = ["cg_example_key"]

# Azure OpenAI example: key goes in the api-key header and every call
# carries an api-version query parameter.
# [[providers]]
# id = "azure"
# base_url = "https://my-resource.openai.azure.com"
# api_key = "..."
# auth_scheme = "header"
# auth_header = "api-key"
# path_prefix = "/openai/deployments/gpt-4o"
# [providers.query]
# api-version = "2024-06-01"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
