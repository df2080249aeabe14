package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/logger"
)

// cqlTimeFormat is the timestamp layout accepted by CQL lastModified clauses.
const cqlTimeFormat = "2006-01-02 15:04"

// searchExpand lists the fields expanded on every search result.
const searchExpand = "body.atlas_doc_format,version,ancestors,space"

// Client is a thin HTTP client for the Confluence content REST API with
// retries, backoff and rate-limit handling built in.
type Client struct {
	http        *http.Client
	cfg         Config
	apiRoot     *url.URL
	rateLimiter *RateLimiter
}

// NewClient creates a client for the configured site.
// With a username set, requests use basic auth; with only a token set,
// it is sent as an OAuth bearer token.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("confluence: base URL is required")
	}

	apiRoot, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + restPrefix + "/")
	if err != nil {
		return nil, fmt.Errorf("confluence: parse base URL: %w", err)
	}

	var httpClient *http.Client
	if cfg.Username == "" && cfg.APIToken != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.APIToken},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:        httpClient,
		cfg:         cfg,
		apiRoot:     apiRoot,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// APIRoot returns the resolved REST API root.
func (c *Client) APIRoot() *url.URL {
	return c.apiRoot
}

// SearchURL builds the first page of a changed-pages query. Results are
// ordered by last-modified ascending; the server enforces the ordering,
// the client never re-sorts.
func (c *Client) SearchURL(watermark time.Time) string {
	cql := fmt.Sprintf("type=page AND lastModified > '%s' ORDER BY lastModified ASC",
		watermark.UTC().Format(cqlTimeFormat))

	q := url.Values{}
	q.Set("cql", cql)
	q.Set("expand", searchExpand)
	q.Set("limit", strconv.Itoa(c.cfg.PageLimit))

	u := *c.apiRoot
	u.Path += "content/search"
	u.RawQuery = q.Encode()
	return u.String()
}

// SearchPage fetches one page of results from the given URL.
// The returned next URL is already normalised to absolute form, empty
// when the API reports no further page.
func (c *Client) SearchPage(ctx context.Context, pageURL string) ([]domain.RawDocument, string, error) {
	var envelope searchResponse
	if err := c.getJSON(ctx, pageURL, &envelope); err != nil {
		return nil, "", err
	}

	docs := make([]domain.RawDocument, 0, len(envelope.Results))
	for i := range envelope.Results {
		docs = append(docs, envelope.Results[i].toRawDocument())
	}

	next, err := NormalizeNextLink(c.apiRoot, envelope.Links.Next)
	if err != nil {
		return nil, "", err
	}
	return docs, next, nil
}

// Ping makes a lightweight request to verify connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	u := *c.apiRoot
	u.Path += "space"
	u.RawQuery = "limit=1"

	var out struct{}
	return c.getJSON(ctx, u.String(), &out)
}

// getJSON performs a GET with the client's retry policy and decodes the
// response body into out.
//
// Transient failures (5xx, connection errors) are retried with backoff
// until the retry budget is exhausted. 429 responses wait out the server
// hint and retry the same request without consuming the budget. Other
// 4xx responses fail immediately.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	attempt := 0

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.do(ctx, rawURL)
		if err != nil {
			attempt++
			logger.Warn("Request error (attempt %d/%d): %v", attempt, c.cfg.MaxRetries, err)
			if attempt >= c.cfg.MaxRetries {
				return fmt.Errorf("%w: %s: %v", ErrRetriesExhausted, rawURL, err)
			}
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := c.rateLimiter.RetryAfter(resp)
			drain(resp)
			logger.Warn("Rate limited. Waiting %s...", wait)
			if err := c.rateLimiter.Pause(ctx, wait); err != nil {
				return err
			}
			// Retry the same request; rate limiting does not consume
			// the transient retry budget.
			continue

		case resp.StatusCode >= 500:
			drain(resp)
			attempt++
			logger.Warn("Server error %d (attempt %d/%d)", resp.StatusCode, attempt, c.cfg.MaxRetries)
			if attempt >= c.cfg.MaxRetries {
				return fmt.Errorf("%w: %s: status %d", ErrRetriesExhausted, rawURL, resp.StatusCode)
			}
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
			continue

		case resp.StatusCode >= 400:
			// Client error: the request is presumed invalid, retrying
			// wastes quota.
			msg := readErrorMessage(resp)
			drain(resp)
			return &APIError{StatusCode: resp.StatusCode, Message: msg, URL: rawURL}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		if err != nil {
			return fmt.Errorf("confluence: decode response from %s: %w", rawURL, err)
		}
		return nil
	}
}

// do issues a single GET request with auth headers attached.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
	}
	return c.http.Do(req)
}

// backoff sleeps for the exponential delay of the given attempt.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryDelay << (attempt - 1)
	return c.rateLimiter.Pause(ctx, delay)
}

// drain discards and closes the response body so the connection can be
// reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// readErrorMessage pulls a short error description out of a failed
// response, preferring the API's message field.
func readErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return resp.Status
	}
	var apiMsg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiMsg); err == nil && apiMsg.Message != "" {
		return apiMsg.Message
	}
	return strings.TrimSpace(string(body))
}

// searchResponse is the search endpoint's response envelope.
type searchResponse struct {
	Results []pageResult `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// pageResult is one expanded content record from a search response.
type pageResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version struct {
		Number int       `json:"number"`
		When   time.Time `json:"when"`
	} `json:"version"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Ancestors []struct {
		ID string `json:"id"`
	} `json:"ancestors"`
	Body struct {
		AtlasDocFormat struct {
			Value string `json:"value"`
		} `json:"atlas_doc_format"`
	} `json:"body"`
}

// toRawDocument converts an API record into the domain representation.
func (p *pageResult) toRawDocument() domain.RawDocument {
	ancestors := make([]string, 0, len(p.Ancestors))
	for _, a := range p.Ancestors {
		if a.ID != "" {
			ancestors = append(ancestors, a.ID)
		}
	}

	version := p.Version.Number
	if version == 0 {
		version = 1
	}

	return domain.RawDocument{
		ID:           p.ID,
		Version:      version,
		Title:        p.Title,
		SpaceKey:     p.Space.Key,
		AncestorIDs:  ancestors,
		Body:         json.RawMessage(p.Body.AtlasDocFormat.Value),
		LastModified: p.Version.When,
	}
}
