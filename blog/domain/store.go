package domain

import "time"

// PostStore is the read/write surface consumed by the rendering and routing
// layers. Queries never touch disk; nil results mean "nothing there".
type PostStore interface {
	PostWith(id string) *Post
	RecentPosts(maxCount int) []*Post
	PostsStartingWith(id string, maxCount int) []*Post
	PostsInYearAndMonth(year int, month time.Month) []*Post
	BlogYears() []*BlogYear

	// SaveNewPost writes a new post with the given body and reloads the store.
	SaveNewPost(body string) (*Post, error)
}
