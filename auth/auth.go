// Package auth guards the bridge's secured HTTP surface with bearer token
// authentication. When no credentials are configured authentication is
// bypassed entirely; this is an explicit opt out, not a default.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// Config holds the validated credential material.
type Config struct {
	// APIKeys are static bearer tokens accepted on the secured surface.
	APIKeys []string `json:"apiKeys,omitempty"`
	// JWTSecret, when set, additionally accepts HS256 signed bearer tokens.
	JWTSecret string `json:"jwtSecret,omitempty"`
}

// Authenticator validates bearer credentials.
type Authenticator struct {
	keys      [][32]byte
	jwtSecret []byte
	logger    zerolog.Logger
}

// Option configures an Authenticator.
type Option func(a *Authenticator)

// WithLogger sets the authenticator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// New creates an authenticator from configured credentials.
func New(config *Config, options ...Option) *Authenticator {
	ret := &Authenticator{logger: zerolog.Nop()}
	if config != nil {
		for _, key := range config.APIKeys {
			if key == "" {
				continue
			}
			ret.keys = append(ret.keys, sha256.Sum256([]byte(key)))
		}
		if config.JWTSecret != "" {
			ret.jwtSecret = []byte(config.JWTSecret)
		}
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Enabled reports whether any credential is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.keys) > 0 || len(a.jwtSecret) > 0
}

// Authenticate reports whether the supplied bearer token is acceptable. The
// decision is deterministic: the same token always yields the same answer, and
// an empty token is always rejected while authentication is enabled.
func (a *Authenticator) Authenticate(token string) bool {
	if !a.Enabled() {
		return true
	}
	if token == "" {
		return false
	}
	digest := sha256.Sum256([]byte(token))
	matched := false
	for i := range a.keys {
		// compare every key so timing does not reveal which one matched
		if subtle.ConstantTimeCompare(digest[:], a.keys[i][:]) == 1 {
			matched = true
		}
	}
	if matched {
		return true
	}
	if len(a.jwtSecret) > 0 {
		if _, err := jwt.Parse(token, a.jwtKey, jwt.WithValidMethods([]string{"HS256"})); err == nil {
			return true
		}
	}
	return false
}

func (a *Authenticator) jwtKey(_ *jwt.Token) (interface{}, error) {
	return a.jwtSecret, nil
}

// Middleware enforces bearer authentication on the wrapped handler. Responses
// never reveal which configured credential was expected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		header := request.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			unauthorized(writer, "API key is required in Authorization header (Bearer token)")
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		if !a.Authenticate(token) {
			unauthorized(writer, "Invalid API key")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func unauthorized(writer http.ResponseWriter, detail string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(writer).Encode(map[string]string{"detail": detail})
}
