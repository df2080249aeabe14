package confluence

import (
	"net/url"
	"strings"
)

// restPrefix is the REST API path segment under the site root.
const restPrefix = "/rest/api"

// NormalizeNextLink converts a pagination link from a search response
// envelope into a canonical absolute URL. The API may return the link
// absolute, root-relative, or relative with the site's context path
// (e.g. "/wiki") missing; all three are normalised against the API root.
func NormalizeNextLink(apiRoot *url.URL, next string) (string, error) {
	if next == "" {
		return "", nil
	}

	u, err := url.Parse(next)
	if err != nil {
		return "", ErrInvalidNextLink
	}

	// Already absolute.
	if u.IsAbs() {
		return u.String(), nil
	}

	// Context path of the site root, e.g. "/wiki" for Cloud instances.
	contextPath := strings.TrimSuffix(apiRoot.Path, restPrefix+"/")
	contextPath = strings.TrimSuffix(contextPath, restPrefix)

	switch {
	case strings.HasPrefix(u.Path, contextPath+restPrefix):
		// Root-relative and complete: just attach scheme and host.

	case strings.HasPrefix(u.Path, restPrefix):
		// Root-relative but missing the context path segment.
		u.Path = contextPath + u.Path

	case strings.HasPrefix(u.Path, "/"):
		// Root-relative without the REST prefix at all.
		u.Path = contextPath + restPrefix + u.Path

	default:
		// Relative to the API root.
		return apiRoot.ResolveReference(u).String(), nil
	}

	u.Scheme = apiRoot.Scheme
	u.Host = apiRoot.Host
	return u.String(), nil
}
