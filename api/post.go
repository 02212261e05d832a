package api

import "time"

type Post struct {
	ID         string         `json:"id"`
	Title      string         `json:"title,omitempty"`
	PostedAt   time.Time      `json:"posted_at"`
	Date       string         `json:"date"`
	Permalink  string         `json:"permalink"`
	Attributes map[string]any `json:"attributes"`
	Body       string         `json:"body"`
	HTML       string         `json:"html"`
	Snippet    string         `json:"snippet,omitempty"`
}

type PostList struct {
	Posts []Post `json:"posts"`
}

type ArchiveMonth struct {
	Month int    `json:"month"`
	Name  string `json:"name"`
	Link  string `json:"link"`
}

type ArchiveYear struct {
	Year   int            `json:"year"`
	Months []ArchiveMonth `json:"months"`
}

type NewPost struct {
	Text string `json:"text" form:"post_text" binding:"required"`
}

type Error struct {
	Error string `json:"error"`
}
