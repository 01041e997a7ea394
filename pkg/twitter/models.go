package twitter

// User is the subset of the X v2 user object the scraper requests
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// APIError is one entry of the errors array returned alongside (or
// instead of) data
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// UserResponse wraps a single user lookup. Data is nil when the handle does
// not exist; the reason is in Errors.
type UserResponse struct {
	Data   *User      `json:"data"`
	Errors []APIError `json:"errors"`
}

// Meta carries the pagination cursor of a listing
type Meta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

// FollowersResponse is one page of a followers listing
type FollowersResponse struct {
	Data []User `json:"data"`
	Meta Meta   `json:"meta"`
}
