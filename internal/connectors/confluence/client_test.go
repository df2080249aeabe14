package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/confsync/internal/core/domain"
)

// fastConfig returns a test config pointing at the fake server with
// millisecond backoff so retry tests stay quick.
func fastConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Username:   "bot@example.com",
		APIToken:   "token",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_SearchURL(t *testing.T) {
	client := newTestClient(t, Config{
		BaseURL:   "https://example.atlassian.net/wiki",
		APIToken:  "token",
		PageLimit: 25,
	})

	watermark := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rawURL := client.SearchURL(watermark)

	u := mustParse(t, rawURL)
	assert.Equal(t, "/wiki/rest/api/content/search", u.Path)
	assert.Equal(t, "type=page AND lastModified > '2024-03-01 09:30' ORDER BY lastModified ASC",
		u.Query().Get("cql"))
	assert.Equal(t, searchExpand, u.Query().Get("expand"))
	assert.Equal(t, "25", u.Query().Get("limit"))
}

func TestClient_SearchURL_ConvertsWatermarkToUTC(t *testing.T) {
	client := newTestClient(t, Config{BaseURL: "https://example.atlassian.net/wiki", APIToken: "t"})

	loc := time.FixedZone("UTC+2", 2*60*60)
	watermark := time.Date(2024, 3, 1, 11, 30, 0, 0, loc)

	u := mustParse(t, client.SearchURL(watermark))
	assert.Contains(t, u.Query().Get("cql"), "'2024-03-01 09:30'")
}

func TestClient_SearchPage_ParsesResults(t *testing.T) {
	adf := `{"type":"doc","content":[]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":    "1001",
					"title": "Runbook",
					"version": map[string]any{
						"number": 7,
						"when":   "2024-03-01T10:00:00Z",
					},
					"space":     map[string]any{"key": "OPS"},
					"ancestors": []map[string]any{{"id": "10"}, {"id": "20"}},
					"body": map[string]any{
						"atlas_doc_format": map[string]any{"value": adf},
					},
				},
				{
					"id":    "1002",
					"title": "Draft",
					"space": map[string]any{"key": "OPS"},
				},
			},
			"_links": map[string]any{},
		})
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	docs, next, err := client.SearchPage(context.Background(), client.SearchURL(domain.DefaultWatermark))

	require.NoError(t, err)
	assert.Equal(t, "", next)
	require.Len(t, docs, 2)

	assert.Equal(t, "1001", docs[0].ID)
	assert.Equal(t, 7, docs[0].Version)
	assert.Equal(t, "Runbook", docs[0].Title)
	assert.Equal(t, "OPS", docs[0].SpaceKey)
	assert.Equal(t, []string{"10", "20"}, docs[0].AncestorIDs)
	assert.JSONEq(t, adf, string(docs[0].Body))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), docs[0].LastModified)

	// A record without a version block defaults to version 1.
	assert.Equal(t, 1, docs[1].Version)
	assert.Empty(t, docs[1].AncestorIDs)
}

func TestClient_SearchPage_NormalisesNextLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{},
			"_links":  map[string]any{"next": "/rest/api/content/search?cursor=abc"},
		})
	}))
	defer server.Close()

	// Base URL carries a context path the next link is missing.
	client := newTestClient(t, fastConfig(server.URL+"/wiki"))
	_, next, err := client.SearchPage(context.Background(), server.URL+"/wiki/rest/api/content/search")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/wiki/rest/api/content/search?cursor=abc", next)
}

func TestClient_GetJSON_RateLimited_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	}))
	defer server.Close()

	// MaxRetries of 1 proves a 429 never consumes the retry budget.
	cfg := fastConfig(server.URL)
	cfg.MaxRetries = 1
	client := newTestClient(t, cfg)

	start := time.Now()
	_, _, err := client.SearchPage(context.Background(), server.URL+"/rest/api/content/search")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestClient_GetJSON_ClientError_FailsFast(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "no content found"})
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	_, _, err := client.SearchPage(context.Background(), server.URL+"/rest/api/content/search")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no content found", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_GetJSON_ServerError_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	_, _, err := client.SearchPage(context.Background(), server.URL+"/rest/api/content/search")

	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GetJSON_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig(server.URL)
	cfg.MaxRetries = 2
	client := newTestClient(t, cfg)

	_, _, err := client.SearchPage(context.Background(), server.URL+"/rest/api/content/search")

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_GetJSON_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := client.SearchPage(ctx, server.URL+"/rest/api/content/search")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Do_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "token", pass)
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	require.NoError(t, client.Ping(context.Background()))
}

func TestClient_Do_BearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	cfg := fastConfig(server.URL)
	cfg.Username = ""
	cfg.APIToken = "pat-token"
	client := newTestClient(t, cfg)

	require.NoError(t, client.Ping(context.Background()))
}

func TestClient_Ping_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, fastConfig(server.URL))
	err := client.Ping(context.Background())

	assert.True(t, IsUnauthorized(err))
}
