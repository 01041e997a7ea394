package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes step-by-step instructions for obtaining an X API
// bearer token
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"X API BEARER TOKEN",
		rule,
		"",
		"The run server reads followers through the X API v2 with an app-only",
		"bearer token.",
		"",
		"STEP 1: Open https://developer.x.com and sign in",
		"STEP 2: Create a project and an app in the developer portal",
		"STEP 3: Under 'Keys and tokens', generate the Bearer Token",
		"STEP 4: Save it with one of:",
		"   xfollowers auth set-token            (stored in the system keychain)",
		"   export XFOLLOWERS_BEARER_TOKEN=...   (or TWITTER_BEARER_TOKEN)",
		"   provider.bearer_token in .xfollowers.yaml",
		"",
		"The followers endpoint is rate limited per 15 minute window; keep",
		"rate_limit.requests at or below your plan's cap.",
		rule,
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
