// Package config defines the bridge configuration and its loading rules.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/mcp-bridge/auth"
	"github.com/viant/mcp-bridge/server"
)

// Inference describes the upstream OpenAI-compatible endpoint.
type Inference struct {
	URL        string `json:"url"`
	APIKey     string `json:"apiKey,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty"`
}

// Timeout returns the request timeout as a duration.
func (i *Inference) Timeout() time.Duration {
	return time.Duration(i.TimeoutSec) * time.Second
}

// Network describes the listen address of the bridge.
type Network struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Address returns host:port with defaults applied.
func (n *Network) Address() string {
	host := n.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := n.Port
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("%v:%v", host, port)
}

// SSE customizes the MCP stream endpoints.
type SSE struct {
	URI        string `json:"uri,omitempty"`
	MessageURI string `json:"messageURI,omitempty"`
}

// Security groups the authentication and CORS settings.
type Security struct {
	Auth *auth.Config `json:"auth,omitempty"`
	CORS *server.Cors `json:"cors,omitempty"`
}

// Logging controls log verbosity.
type Logging struct {
	Level string `json:"level,omitempty"`
}

// Toolsets enables the built-in local tools.
type Toolsets struct {
	// FsBaseURL, when set, exposes list_files and read_file scoped to this location.
	FsBaseURL string `json:"fsBaseURL,omitempty"`
	// Terminal exposes a shell execution tool. Off unless explicitly enabled.
	Terminal bool `json:"terminal,omitempty"`
}

// Config is the root bridge configuration.
type Config struct {
	Inference Inference `json:"inference"`
	Network   Network   `json:"network,omitempty"`
	SSE       SSE       `json:"sse,omitempty"`
	Security  Security  `json:"security,omitempty"`
	Logging   Logging   `json:"logging,omitempty"`
	Toolsets  Toolsets  `json:"toolsets,omitempty"`
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Inference.TimeoutSec == 0 {
		c.Inference.TimeoutSec = 300
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Inference.URL == "" {
		return fmt.Errorf("inference.url was empty")
	}
	return nil
}

// Load reads configuration from a local path or URL, expanding ${VAR}
// references against the process environment before decoding.
func Load(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v %w", URL, err)
	}
	data = []byte(ExpandEnv(string(data)))
	ret := &Config{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v %w", URL, err)
	}
	ret.Init()
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
