// Package community provides a client for the DCInside mobile app API,
// used to read coin community boards.
package community

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the DCInside mobile app API host
const DefaultBaseURL = "https://app.dcinside.com"

// UserAgent is sent on every data request
const UserAgent = "dcinside.app"

// Gallery is one post in a gallery listing
type Gallery struct {
	No           string `json:"no"`
	Hit          string `json:"hit"`
	Recommend    string `json:"recommend"`
	TotalComment string `json:"total_comment"`
	Subject      string `json:"subject"`
	Name         string `json:"name"`
	DateTime     string `json:"date_time"`
}

// SearchPost is one post in a search result
type SearchPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	GalleryName string `json:"gall_name"`
}

// SearchResult is the body of a total search
type SearchResult struct {
	Board []SearchPost `json:"board"`
}

type galleryListResponse struct {
	GallList []Gallery `json:"gall_list"`
}

// StatusError is a non-success HTTP status
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dcinside %s: http %d", e.Path, e.Status)
}

// Client for the DCInside app API
type Client struct {
	baseURL string
	appID   string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	retryInterval time.Duration
	maxTries      uint
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Redirects are never followed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRetry sets the initial retry interval and the maximum number of attempts
func WithRetry(interval time.Duration, maxTries uint) Option {
	return func(c *Client) {
		c.retryInterval = interval
		c.maxTries = maxTries
	}
}

// NewClient creates a new client. appID is the app verification id every
// API call carries.
func NewClient(baseURL, appID string, log zerolog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		appID:         appID,
		client:        &http.Client{Timeout: 10 * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(2), 2),
		log:           log.With().Str("client", "dcinside").Logger(),
		retryInterval: 500 * time.Millisecond,
		maxTries:      3,
	}
	for _, opt := range opts {
		opt(c)
	}

	// The listing endpoints answer through a redirect whose target must be
	// fetched with the app user agent
	hc := *c.client
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.client = &hc
	return c
}

// GalleryList returns one page of a gallery
func (c *Client) GalleryList(ctx context.Context, galleryID string, page int) ([]Gallery, error) {
	query := url.Values{
		"id":     {galleryID},
		"page":   {fmt.Sprint(page)},
		"app_id": {c.appID},
	}
	target := c.baseURL + "/api/gall_list_new.php?" + query.Encode()

	location, err := c.resolveRedirect(ctx, target)
	if err != nil {
		return nil, err
	}

	var payload []galleryListResponse
	err = c.do(ctx, "/api/gall_list_new.php", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgent)
		return req, nil
	}, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("dcinside: empty listing for %s", galleryID)
	}
	return payload[0].GallList, nil
}

// Search runs a total search for keyword
func (c *Client) Search(ctx context.Context, keyword string) (*SearchResult, error) {
	var result SearchResult
	err := c.do(ctx, "/api/_total_search.php", func() (*http.Request, error) {
		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		fields := [][2]string{
			{"app_id", c.appID},
			{"search_type", "search_main"},
			{"keyword", keyword},
		}
		for _, f := range fields {
			if err := form.WriteField(f[0], f[1]); err != nil {
				return nil, err
			}
		}
		if err := form.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/_total_search.php", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("User-Agent", UserAgent)
		return req, nil
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// resolveRedirect asks the redirect endpoint where target is served from
func (c *Client) resolveRedirect(ctx context.Context, target string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + "/api/redirect.php?hash=" + base64.StdEncoding.EncodeToString([]byte(target))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("dcinside redirect: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusFound {
		return "", &StatusError{Status: resp.StatusCode, Path: "/api/redirect.php"}
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.New("dcinside redirect: missing location")
	}
	return location, nil
}

// do sends the request built by newRequest and decodes the JSON body into
// out. Transport errors and 5xx answers are retried with backoff.
func (c *Client) do(ctx context.Context, path string, newRequest func() (*http.Request, error), out interface{}) error {
	operation := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		req, err := newRequest()
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("dcinside %s: %w", path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return nil, &StatusError{Status: resp.StatusCode, Path: path}
		}
		if resp.StatusCode >= 300 {
			return nil, backoff.Permanent(&StatusError{Status: resp.StatusCode, Path: path})
		}
		return data, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("DCInside request failed")
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
