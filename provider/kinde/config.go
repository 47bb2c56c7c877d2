package kinde

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Config holds the Kinde machine-to-machine credentials used to call the
// management API on behalf of the backend.
type Config struct {
	// Domain is the Kinde tenant domain (e.g. "example.kinde.com").
	Domain string

	// ClientID and ClientSecret identify the M2M application.
	ClientID     string
	ClientSecret string

	// Audience is the management API identifier. Default: "{base}/api".
	Audience string

	// HTTPClient overrides the transport used for token and API calls.
	HTTPClient *http.Client
}

// Validate checks that the config can produce a working client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return goerrors.New("kinde domain is required", goerrors.CategoryValidation)
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return goerrors.New("kinde client id is required", goerrors.CategoryValidation)
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return goerrors.New("kinde client secret is required", goerrors.CategoryValidation)
	}
	return nil
}

func (c Config) baseURL() string {
	domain := strings.TrimSpace(c.Domain)
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return strings.TrimSuffix(domain, "/")
	}
	return fmt.Sprintf("https://%s", strings.TrimSuffix(domain, "/"))
}

func (c Config) audience() string {
	if c.Audience != "" {
		return c.Audience
	}
	return c.baseURL() + "/api"
}
