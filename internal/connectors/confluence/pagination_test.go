package confluence

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNormalizeNextLink_Empty(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "")

	require.NoError(t, err)
	assert.Equal(t, "", next)
}

func TestNormalizeNextLink_Absolute(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot,
		"https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_RootRelativeComplete(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "/wiki/rest/api/content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_MissingContextPath(t *testing.T) {
	// Cloud instances sometimes emit links without the "/wiki" segment.
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "/rest/api/content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_RootRelativeWithoutRESTPrefix(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "/content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_Relative(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_NoContextPath(t *testing.T) {
	// Server installs often live at the site root.
	apiRoot := mustParse(t, "https://confluence.internal/rest/api/")

	next, err := NormalizeNextLink(apiRoot, "/rest/api/content/search?cursor=abc")

	require.NoError(t, err)
	assert.Equal(t, "https://confluence.internal/rest/api/content/search?cursor=abc", next)
}

func TestNormalizeNextLink_Invalid(t *testing.T) {
	apiRoot := mustParse(t, "https://example.atlassian.net/wiki/rest/api/")

	_, err := NormalizeNextLink(apiRoot, "://missing-scheme")

	assert.ErrorIs(t, err, ErrInvalidNextLink)
}
