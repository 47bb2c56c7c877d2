package kinde

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/codecake/ecom-identity"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the Kinde management API. It implements
// identity.ProfileService: the synchronizer uses it as the authoritative
// profile source for a subject.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ identity.ProfileService = (*Client)(nil)

// New builds a client that mints and refreshes its own machine-to-machine
// token via the client-credentials grant.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	credentials := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.baseURL() + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"audience": {cfg.audience()},
		},
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	return &Client{
		baseURL:    cfg.baseURL(),
		httpClient: credentials.Client(ctx),
	}, nil
}

// UserProfile fetches the subject's profile from the management API. Any
// transport, auth, or decode failure surfaces as a retryable IdP outage;
// no partial data is ever returned.
func (c *Client) UserProfile(ctx context.Context, subjectID string) (identity.Claims, error) {
	endpoint := fmt.Sprintf("%s/api/v1/user?id=%s", c.baseURL, url.QueryEscape(subjectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, identity.WrapIdPUnavailable(err, "failed to build profile request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, identity.WrapIdPUnavailable(err, "profile request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, identity.WrapIdPUnavailable(
			fmt.Errorf("kinde responded with status %d", res.StatusCode),
			"profile request rejected",
		)
	}

	var profile map[string]any
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return nil, identity.WrapIdPUnavailable(err, "failed to decode profile response")
	}

	return identity.Claims(profile), nil
}
