// Package steam provides the client for the authenticated Steam Web API
// endpoints: the owned-games listing and per-app achievement progress.
//
// The Web API authenticates with a key query parameter. Failures are never
// fatal here: every call returns the documented empty value together with an
// error the caller may log.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/transport"
)

// DefaultBaseURL is the public Steam Web API host.
const DefaultBaseURL = "https://api.steampowered.com"

// Credentials identify the account and authorize Web API calls. They are
// read-only for the whole run.
type Credentials struct {
	APIKey  string
	SteamID string
}

// Client is the HTTP client for the Steam Web API.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a Web API client with the given request policy.
func NewClient(baseURL string, policy transport.Policy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:   transport.NewClient(baseURL, policy, logger),
		logger: logger,
	}
}

// get performs a GET and decodes a JSON body into out. A non-success status
// is ErrSourceUnavailable; an undecodable body is ErrMalformedResponse.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("http request %s: %w: %w", path, provider.ErrSourceUnavailable, transport.Redact(err))
	}

	if !res.IsSuccess() {
		return fmt.Errorf("steam %s returned %d: %w", path, res.StatusCode(), provider.ErrSourceUnavailable)
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("decode %s (%s): %w: %w", path, transport.Truncate(res.Body(), 200), provider.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) authParams(creds Credentials) url.Values {
	return url.Values{
		"key":     {creds.APIKey},
		"steamid": {creds.SteamID},
	}
}
