package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stewardrx/platform/pkg/common/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotFound = errors.New("fhir resource not found")

// Client is a thin FHIR REST client. When a token URL is configured it
// authenticates via SMART backend services (OAuth2 client credentials);
// otherwise it talks to an open endpoint, which is how local sandboxes run.
type Client struct {
	baseURL string
	http    *http.Client
}

type Options struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

func NewClient(opts Options) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}

	if opts.TokenURL != "" && opts.ClientID != "" {
		ccfg := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			Scopes:       opts.Scopes,
		}
		// oauth2 reuses the base transport and refreshes tokens as needed.
		src := ccfg.TokenSource(context.Background())
		httpClient.Transport = &tokenTransport{base: transport, source: src}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
	}
}

// Bundle is the slice of a FHIR searchset this client cares about: raw
// resource maps, left untyped for the transformer to normalize.
type Bundle struct {
	Total   int
	Entries []map[string]interface{}
}

// Search performs a FHIR search and returns the bundle entries.
func (c *Client) Search(ctx context.Context, resourceType string, params url.Values) (*Bundle, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, resourceType)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Total int `json:"total"`
		Entry []struct {
			Resource map[string]interface{} `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding search bundle: %w", err)
	}

	bundle := &Bundle{Total: raw.Total, Entries: make([]map[string]interface{}, 0, len(raw.Entry))}
	for _, entry := range raw.Entry {
		if entry.Resource != nil {
			bundle.Entries = append(bundle.Entries, entry.Resource)
		}
	}
	return bundle, nil
}

// Read fetches a single resource by type and id.
func (c *Client) Read(ctx context.Context, resourceType, id string) (map[string]interface{}, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, resourceType, id))
	if err != nil {
		return nil, err
	}

	var resource map[string]interface{}
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", resourceType, id, err)
	}
	return resource, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fhir request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		logger.Log.WithFields(map[string]interface{}{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		}).Warn("unexpected FHIR response status")
		return nil, fmt.Errorf("fhir server returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading fhir response: %w", err)
	}
	return body, nil
}

// tokenTransport injects the backend-services bearer token on every request.
type tokenTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching access token: %w", err)
	}
	clone := req.Clone(req.Context())
	token.SetAuthHeader(clone)
	return t.base.RoundTrip(clone)
}
