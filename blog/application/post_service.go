package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/flatblog/blog/domain"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPostsPerPage matches the home page size of the original blog.
	DefaultPostsPerPage = 100

	dateLayout = "02 Jan 2006 - 03:04 PM"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post text is empty")
)

// PostView is a post prepared for presentation.
type PostView struct {
	ID         string
	Title      string
	PostedAt   time.Time
	DateString string
	Permalink  string
	Attributes map[string]any
	Body       string
	HTML       string
	Snippet    string
}

// PostService is the read/write facade used by the HTTP layer and the CLI.
// It owns no state of its own beyond configuration; every call goes to the
// store's current snapshot.
type PostService struct {
	store        domain.PostStore
	markdown     MarkdownRenderer
	loc          *time.Location
	postsPerPage int
}

func NewPostService(store domain.PostStore, markdown MarkdownRenderer, loc *time.Location, postsPerPage int) *PostService {
	if loc == nil {
		loc = time.Local
	}
	if postsPerPage <= 0 {
		postsPerPage = DefaultPostsPerPage
	}
	return &PostService{
		store:        store,
		markdown:     markdown,
		loc:          loc,
		postsPerPage: postsPerPage,
	}
}

func (s *PostService) PostsPerPage() int {
	return s.postsPerPage
}

// RecentPosts returns the newest posts. A non-positive limit means one page.
func (s *PostService) RecentPosts(limit int) ([]*PostView, error) {
	if limit <= 0 {
		limit = s.postsPerPage
	}
	return s.views(s.store.RecentPosts(limit))
}

func (s *PostService) Post(id string) (*PostView, error) {
	post := s.store.PostWith(id)
	if post == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}
	return s.view(post)
}

// PostsStartingWith pages through the posts beginning at id.
func (s *PostService) PostsStartingWith(id string, limit int) ([]*PostView, error) {
	if limit <= 0 {
		limit = s.postsPerPage
	}
	posts := s.store.PostsStartingWith(id, limit)
	if posts == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}
	return s.views(posts)
}

func (s *PostService) PostsInMonth(year int, month time.Month) ([]*PostView, error) {
	return s.views(s.store.PostsInYearAndMonth(year, month))
}

func (s *PostService) Archive() []ArchiveYear {
	return SortArchive(s.store.BlogYears())
}

// Publish saves text as a new post.
func (s *PostService) Publish(text string) (*PostView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPost
	}

	post, err := s.store.SaveNewPost(text)
	if err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	log.Info().Str("postID", post.ID).Msg("Published post")

	return s.view(post)
}

func (s *PostService) views(posts []*domain.Post) ([]*PostView, error) {
	out := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.view(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *PostService) view(p *domain.Post) (*PostView, error) {
	rendered, err := s.markdown.Render(p.Body)
	if err != nil {
		log.Error().Err(err).Str("postID", p.ID).Msg("Failed to render post")
		return nil, err
	}

	postedAt := p.PostedAt(s.loc)
	title, ok := p.Title()
	if !ok {
		title = rendered.Title
	}

	attrs := make(map[string]any, p.Attributes.Len())
	p.Attributes.Each(func(key string, v domain.Value) {
		attrs[key] = v.Interface()
	})

	return &PostView{
		ID:         p.ID,
		Title:      title,
		PostedAt:   postedAt,
		DateString: postedAt.Format(dateLayout),
		Permalink:  "/post/" + p.ID,
		Attributes: attrs,
		Body:       p.Body,
		HTML:       rendered.HTML,
		Snippet:    rendered.Snippet,
	}, nil
}
