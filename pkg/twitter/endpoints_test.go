package twitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: "acme", want: "acme"},
		{name: "at prefix", in: "@acme", want: "acme"},
		{name: "whitespace", in: "  @acme \n", want: "acme"},
		{name: "x profile url", in: "https://x.com/acme", want: "acme"},
		{name: "twitter url with status path", in: "https://twitter.com/acme/status/123", want: "acme"},
		{name: "mobile host", in: "https://mobile.twitter.com/acme/", want: "acme"},
		{name: "url with query", in: "https://x.com/acme?s=20", want: "acme"},
		{name: "url without path", in: "https://x.com/", want: ""},
		{name: "trailing path on bare name", in: "@acme/followers", want: "acme"},
		{name: "empty", in: "", want: ""},
		{name: "only spaces", in: "   ", want: ""},
		{name: "only at", in: "@", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHandle(tt.in))
		})
	}
}

func TestUserLookupURL(t *testing.T) {
	got := UserLookupURL("https://api.example/", "acme")
	assert.Equal(t, "https://api.example/2/users/by/username/acme?user.fields=name%2Cdescription", got)
}

func TestFollowersURL(t *testing.T) {
	tests := []struct {
		name     string
		cursor   string
		pageSize int
		wantSize string
	}{
		{name: "first page", pageSize: 1000, wantSize: "1000"},
		{name: "with cursor", cursor: "NEXT1", pageSize: 200, wantSize: "200"},
		{name: "zero page size", pageSize: 0, wantSize: "1000"},
		{name: "oversized page", pageSize: 5000, wantSize: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := FollowersURL(BaseURL, "42", tt.cursor, tt.pageSize)
			u, err := url.Parse(raw)
			require.NoError(t, err)

			assert.Equal(t, "/2/users/42/followers", u.Path)
			q := u.Query()
			assert.Equal(t, tt.wantSize, q.Get("max_results"))
			assert.Equal(t, "name,description,username,location", q.Get("user.fields"))
			if tt.cursor == "" {
				assert.False(t, q.Has("pagination_token"))
			} else {
				assert.Equal(t, tt.cursor, q.Get("pagination_token"))
			}
		})
	}
}

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://x.com/acme", ProfileURL("acme"))
	assert.Equal(t, "", ProfileURL(""))
}
