package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the X API host
	BaseURL = "https://api.twitter.com"

	// ProfileBaseURL prefixes public profile links
	ProfileBaseURL = "https://x.com"

	// DefaultPageSize is the follower page size the API allows at most
	DefaultPageSize = 1000

	// MaxPageSize is the provider's upper bound for max_results
	MaxPageSize = 1000

	lookupFields    = "name,description"
	followersFields = "name,description,username,location"
)

// UserLookupURL builds the username lookup URL
func UserLookupURL(base, handle string) string {
	params := url.Values{}
	params.Set("user.fields", lookupFields)

	return fmt.Sprintf("%s/2/users/by/username/%s?%s", strings.TrimRight(base, "/"), url.PathEscape(handle), params.Encode())
}

// FollowersURL builds the followers listing URL for one page. An empty
// cursor requests the first page.
func FollowersURL(base, userID, cursor string, pageSize int) string {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("user.fields", followersFields)
	if cursor != "" {
		params.Set("pagination_token", cursor)
	}

	return fmt.Sprintf("%s/2/users/%s/followers?%s", strings.TrimRight(base, "/"), url.PathEscape(userID), params.Encode())
}

// ProfileURL returns the public profile link for username
func ProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return ProfileBaseURL + "/" + username
}

// NormalizeHandle extracts a handle from raw input: a bare name, an
// @-prefixed name or a profile URL. The result is empty when nothing
// usable remains.
func NormalizeHandle(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
		host := strings.ToLower(u.Hostname())
		if strings.Contains(host, "twitter.com") || strings.Contains(host, "x.com") {
			for _, part := range strings.Split(u.Path, "/") {
				if part != "" {
					return part
				}
			}
			return ""
		}
	}

	handle := strings.TrimPrefix(trimmed, "@")
	if i := strings.Index(handle, "/"); i >= 0 {
		handle = handle[:i]
	}
	return handle
}
