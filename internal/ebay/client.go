// Package ebay finds comparable marketplace listings for an item, using the
// eBay Browse API or a deterministic mock catalog.
package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/rs/zerolog/log"
)

const (
	OAuthScope    = "https://api.ebay.com/oauth/api_scope"
	MarketplaceID = "EBAY_US"
	searchPath    = "/buy/browse/v1/item_summary/search"
)

// ErrMissingCredentials means the client id or secret is empty.
var ErrMissingCredentials = errors.New("ebay client credentials not configured")

type ClientOpts struct {
	ClientID     string
	ClientSecret string
	// TokenURL is the full OAuth token endpoint.
	TokenURL string
	// APIBaseURL is the REST API root, e.g. https://api.ebay.com.
	APIBaseURL string
	Timeout    time.Duration
}

// Client talks to the eBay OAuth and Browse APIs.
type Client struct {
	httpClient   *resty.Client
	clientID     string
	clientSecret string
	tokenURL     string
}

func NewClient(opts ClientOpts) *Client {
	c := &Client{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		tokenURL:     opts.TokenURL,
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(opts.APIBaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	return c
}

// NewClientFromConfig builds a client for the sandbox or production
// environment selected in cfg.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(ClientOpts{
		ClientID:     cfg.EbayClientID,
		ClientSecret: cfg.EbayClientSecret,
		TokenURL:     cfg.EbayOAuthEndpoint(),
		APIBaseURL:   cfg.EbayAPIEndpoint(),
		Timeout:      cfg.SearchTimeout,
	})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token exchanges the client credentials for an application access token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrMissingCredentials
	}

	result := &tokenResponse{}
	_, err := handleError(c.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      OAuthScope,
		}).
		SetResult(result).
		Post(c.tokenURL))
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("failed to get access token: empty token in response")
	}

	return result.AccessToken, nil
}

type searchResponse struct {
	Total         int               `json:"total"`
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
}

type itemSummary struct {
	Title      string `json:"title"`
	ItemWebURL string `json:"itemWebUrl"`
	Price      *struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
}

// Search returns up to limit comparables for query. A fresh token is
// requested for every call. Items that lack a title, URL or valid
// non-negative price are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]listing.Comparable, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	result := &searchResponse{}
	_, err = handleError(c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-EBAY-C-MARKETPLACE-ID", MarketplaceID).
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": strconv.Itoa(limit),
		}).
		SetResult(result).
		Get(searchPath))
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	comparables := make([]listing.Comparable, 0, len(result.ItemSummaries))
	for i, raw := range result.ItemSummaries {
		if len(comparables) >= limit {
			break
		}
		cmp, ok := parseItemSummary(raw)
		if !ok {
			log.Debug().Int("index", i).Str("query", query).Msg("skipping unusable item summary")
			continue
		}
		comparables = append(comparables, cmp)
	}

	return comparables, nil
}

func parseItemSummary(raw json.RawMessage) (listing.Comparable, bool) {
	var item itemSummary
	if err := json.Unmarshal(raw, &item); err != nil {
		return listing.Comparable{}, false
	}
	if item.Title == "" || item.ItemWebURL == "" || item.Price == nil {
		return listing.Comparable{}, false
	}
	price, err := strconv.ParseFloat(item.Price.Value, 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return listing.Comparable{}, false
	}
	return listing.Comparable{Title: item.Title, Price: price, URL: item.ItemWebURL}, true
}

// handleError is a generic error handler for failing response (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
