// Package jwtware verifies inbound bearer tokens and stores the verified
// *jwt.Token on the request for downstream handlers. Signing keys come
// either from a static key or from the IdP's published JWK Set.
package jwtware

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenLookup = "header:" + fiber.HeaderAuthorization

// ErrJWTMissingOrMalformed is returned when no token can be extracted from
// the request.
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// Config configures the middleware. Zero values get sensible defaults; at
// least one key source (SigningKey, KeyFunc, or JWKSetURLs) is required.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// SuccessHandler runs after the token has been verified and stored.
	SuccessHandler fiber.Handler

	// ErrorHandler renders extraction and verification failures.
	ErrorHandler fiber.ErrorHandler

	// SigningKey verifies tokens signed with a single static key.
	SigningKey SigningKey

	// KeyFunc overrides key resolution entirely.
	KeyFunc jwt.Keyfunc

	// JWKSetURLs resolves keys from the IdP's JWK Set endpoints, refreshed
	// in the background.
	JWKSetURLs []string

	// ContextKey is the fiber locals key the verified token is stored
	// under. Defaults to "user".
	ContextKey string

	// TokenLookup is a comma separated list of "<source>:<name>" entries
	// tried in order, e.g. "header:Authorization,cookie:jwt,query:token".
	TokenLookup string

	// AuthScheme is the expected header scheme. Defaults to "Bearer".
	AuthScheme string
}

// SigningKey holds a static verification key and the algorithm it expects.
type SigningKey struct {
	JWTAlg string
	Key    any
}

// New builds the verification middleware.
func New(config ...Config) fiber.Handler {
	cfg := defaultConfig(config...)
	extractors := cfg.extractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		token, err := jwt.Parse(raw, cfg.KeyFunc)
		if err != nil || !token.Valid {
			if err == nil {
				err = jwt.ErrTokenUnverifiable
			}
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, token)
		return cfg.SuccessHandler(c)
	}
}

func defaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			return c.Status(fiber.StatusUnauthorized).SendString("invalid or expired token")
		}
	}

	if cfg.SigningKey.Key == nil && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("jwtware: at least one of KeyFunc, JWKSetURLs, or SigningKey is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.KeyFunc == nil {
		if len(cfg.JWKSetURLs) > 0 {
			var err error
			cfg.KeyFunc, err = jwkSetKeyfunc(cfg.JWKSetURLs)
			if err != nil {
				panic("jwtware: failed to create keyfunc from JWK Set URL: " + err.Error())
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	return cfg
}

func jwkSetKeyfunc(urls []string) (jwt.Keyfunc, error) {
	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("jwtware: background JWK Set refresh failed: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(urls))
	for _, url := range urls {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK Sets: %w", err)
	}
	return multi.Keyfunc, nil
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q, alg header missing", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

type tokenExtractor func(c *fiber.Ctx) (string, error)

func extractRawToken(c *fiber.Ctx, extractors []tokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}
	return raw, err
}

func (cfg *Config) extractors() []tokenExtractor {
	extractors := make([]tokenExtractor, 0)

	for _, entry := range strings.Split(cfg.TokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[1])

		switch strings.TrimSpace(parts[0]) {
		case "header":
			extractors = append(extractors, fromHeader(name, cfg.AuthScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

func fromHeader(header, authScheme string) tokenExtractor {
	scheme := strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) (string, error) {
		value := c.Get(header)
		l := len(scheme)
		if len(value) > l+1 && strings.EqualFold(value[:l], scheme) {
			return strings.TrimSpace(value[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

func fromQuery(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func fromCookie(name string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
