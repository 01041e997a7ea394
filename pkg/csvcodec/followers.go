package csvcodec

import (
	"fmt"
	"strings"

	"xfollowers/pkg/models"
)

var (
	// FollowerHeader is the column set of a plain follower export
	FollowerHeader = []string{"username", "name", "bio"}

	// AnalyticsHeader extends FollowerHeader for classified exports
	AnalyticsHeader = []string{"username", "name", "bio", "location", "profile_url", "category"}
)

// EncodeFollowers renders followers with the plain export header
func EncodeFollowers(followers []models.Follower) string {
	rows := make([][]string, len(followers))
	for i, f := range followers {
		rows[i] = []string{f.Username, f.Name, f.Bio}
	}
	return Encode(FollowerHeader, rows)
}

// EncodeAnalytics renders classified followers with the extended header.
// The category column carries the display label.
func EncodeAnalytics(followers []models.Follower) string {
	rows := make([][]string, len(followers))
	for i, f := range followers {
		rows[i] = []string{f.Username, f.Name, f.Bio, f.Location, f.ProfileURL, f.Category.Label()}
	}
	return Encode(AnalyticsHeader, rows)
}

// DecodeFollowers reads either export shape. The username column is
// required; everything else may be missing. An unknown category value is
// left unset so the classifier assigns one.
func DecodeFollowers(text string) ([]models.Follower, error) {
	header, records := Decode(text)
	if len(header) == 0 {
		return nil, nil
	}
	if !contains(header, "username") {
		return nil, fmt.Errorf("csv header %q has no username column", strings.Join(header, ","))
	}

	followers := make([]models.Follower, 0, len(records))
	for _, rec := range records {
		f := models.Follower{
			Username:   rec["username"],
			Name:       rec["name"],
			Bio:        rec["bio"],
			Location:   rec["location"],
			ProfileURL: rec["profile_url"],
		}
		if cat, ok := models.ParseCategory(rec["category"]); ok {
			f.Category = cat
		}
		followers = append(followers, f)
	}
	return followers, nil
}

// FollowersFilename is the download name of a plain follower export
func FollowersFilename(handle string) string {
	return ExportFilename("followers", handle)
}

// ExportFilename names an export as <label>_<handle>.csv
func ExportFilename(label, handle string) string {
	return fmt.Sprintf("%s_%s.csv", label, handle)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
