package linkcode

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildShareURL produces the public shareable link for a payload:
// <base>/#/agreement/<id>?data=<token>. The id in the path is for humans and
// bookmarks; the embedded token is the source of truth when present.
func BuildShareURL(base string, p Payload) (string, error) {
	token, err := Encode(p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/#/agreement/%s?data=%s", strings.TrimRight(base, "/"), p.ID, token), nil
}

// TokenFromURL extracts the embedded data token from a share URL. The token
// normally lives in the hash-fragment query; a plain ?data= query is also
// accepted. Returns "" when no token is present.
func TokenFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if hash := strings.Index(raw, "#"); hash >= 0 {
		fragment := raw[hash+1:]
		query := strings.Index(fragment, "?")
		if query < 0 {
			return ""
		}
		values, err := url.ParseQuery(fragment[query+1:])
		if err != nil {
			return ""
		}
		return values.Get("data")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("data")
}

// IDFromURL extracts the agreement id from a share URL path, or "" when the
// URL does not look like an agreement link.
func IDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	marker := "/agreement/"
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return ""
	}
	rest := raw[idx+len(marker):]
	if end := strings.IndexAny(rest, "?#/"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
