package twitter

// SearchResponse represents the /tweets/search/recent response structure.
type SearchResponse struct {
	Data     []Tweet    `json:"data"`
	Includes *Includes  `json:"includes"`
	Meta     Meta       `json:"meta"`
	Errors   []APIError `json:"errors"`
}

type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	AuthorID  string `json:"author_id"`
	Lang      string `json:"lang"`
}

type Includes struct {
	Users []User `json:"users"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type Meta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id"`
	OldestID    string `json:"oldest_id"`
}

type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}
