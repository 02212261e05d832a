package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dfryer1193/flatblog/blog/domain"
	"github.com/dfryer1193/flatblog/blog/postfile"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog/log"
)

var _ domain.PostStore = (*FileStore)(nil)

const (
	postsDirName = "posts"

	// DefaultSuffix is the file extension of post files.
	DefaultSuffix = "markdown"
)

// FileStore keeps every post under {root}/posts in memory. It is read-mostly:
// queries run against an immutable snapshot, and every write rebuilds the
// snapshot from disk.
//
// Posts are keyed by their timestamp. Two posts whose date_time_posted are
// equal share an id and a path; SaveNewPost refuses to overwrite, but files
// placed on disk by hand are not checked beyond a warning at load time.
type FileStore struct {
	postsDir string
	suffix   string
	loc      *time.Location
	now      func() time.Time

	snap atomic.Pointer[snapshot]
}

// snapshot is published as a unit so readers never see a partial rebuild.
type snapshot struct {
	posts       []*domain.Post // descending by DateTimePosted
	byID        map[string]*domain.Post
	position    map[string]int
	diagnostics []domain.LoadDiagnostic
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLocation sets the zone used to derive calendar years and months from
// timestamps. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *FileStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSuffix overrides the post file extension.
func WithSuffix(suffix string) Option {
	return func(s *FileStore) {
		s.suffix = strings.TrimPrefix(suffix, ".")
	}
}

// WithClock replaces time.Now for SaveNewPost.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a store rooted at blogFolder. The store is empty until
// Load is called.
func NewFileStore(blogFolder string, opts ...Option) *FileStore {
	s := &FileStore{
		postsDir: filepath.Join(blogFolder, postsDirName),
		suffix:   DefaultSuffix,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(&snapshot{byID: map[string]*domain.Post{}, position: map[string]int{}})
	return s
}

// OpenFileStore creates a store and loads it.
func OpenFileStore(blogFolder string, opts ...Option) (*FileStore, error) {
	s := NewFileStore(blogFolder, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// PostsDir returns the directory scanned for post files.
func (s *FileStore) PostsDir() string {
	return s.postsDir
}

// Load scans the posts directory and replaces the in-memory collection.
// Files that cannot be read or parsed are skipped and reported by
// Diagnostics. Only a failure to walk the posts directory itself is returned.
// A missing posts directory loads as an empty store.
func (s *FileStore) Load() error {
	var (
		posts       []*domain.Post
		diagnostics []domain.LoadDiagnostic
	)

	skip := func(path string, err error) {
		log.Warn().Err(err).Str("path", path).Msg("Skipping post file")
		diagnostics = append(diagnostics, domain.LoadDiagnostic{Path: path, Err: err})
	}

	err := filepath.WalkDir(s.postsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.postsDir {
				return err
			}
			skip(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.isPostFile(path) {
			return nil
		}

		post, err := postfile.ReadPostFile(path)
		if err != nil {
			skip(path, err)
			return nil
		}
		posts = append(posts, post)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("dir", s.postsDir).Msg("Posts directory does not exist, starting empty")
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to scan posts directory: %w", err)
	}

	s.snap.Store(buildSnapshot(posts, diagnostics))
	log.Info().Int("posts", len(posts)).Int("skipped", len(diagnostics)).Str("dir", s.postsDir).Msg("Loaded posts")
	return nil
}

// InvalidateAndReload drops the current collection and rebuilds it from disk.
func (s *FileStore) InvalidateAndReload() error {
	return s.Load()
}

// Diagnostics lists the files skipped by the most recent load.
func (s *FileStore) Diagnostics() []domain.LoadDiagnostic {
	d := s.snap.Load().diagnostics
	out := make([]domain.LoadDiagnostic, len(d))
	copy(out, d)
	return out
}

// Len returns the number of loaded posts.
func (s *FileStore) Len() int {
	return len(s.snap.Load().posts)
}

func buildSnapshot(posts []*domain.Post, diagnostics []domain.LoadDiagnostic) *snapshot {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].DateTimePosted != posts[j].DateTimePosted {
			return posts[i].DateTimePosted > posts[j].DateTimePosted
		}
		return posts[i].SourcePath < posts[j].SourcePath
	})

	snap := &snapshot{
		posts:       posts,
		byID:        make(map[string]*domain.Post, len(posts)),
		position:    make(map[string]int, len(posts)),
		diagnostics: diagnostics,
	}
	for i, p := range posts {
		if prev, dup := snap.byID[p.ID]; dup {
			log.Warn().Str("postID", p.ID).Str("path", p.SourcePath).Str("previous", prev.SourcePath).Msg("Duplicate post id")
		}
		snap.byID[p.ID] = p
		snap.position[p.ID] = i
	}
	return snap
}

func (s *FileStore) isPostFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "."+s.suffix)
}

// PostWith returns the post with the given id, or nil.
func (s *FileStore) PostWith(id string) *domain.Post {
	return s.snap.Load().byID[id]
}

// RecentPosts returns up to maxCount posts, most recent first. It returns nil
// when maxCount is not positive or the store is empty.
func (s *FileStore) RecentPosts(maxCount int) []*domain.Post {
	posts := s.snap.Load().posts
	if maxCount <= 0 || len(posts) == 0 {
		return nil
	}
	return window(posts, 0, maxCount)
}

// PostsStartingWith returns up to maxCount consecutive posts beginning with
// the post id. It returns nil when the id is unknown or maxCount is not
// positive.
func (s *FileStore) PostsStartingWith(id string, maxCount int) []*domain.Post {
	if maxCount <= 0 {
		return nil
	}
	snap := s.snap.Load()
	i, ok := snap.position[id]
	if !ok {
		return nil
	}
	return window(snap.posts, i, maxCount)
}

// PostsInYearAndMonth returns every post published in the given month, most
// recent first. The result is empty, not nil, when nothing matches.
func (s *FileStore) PostsInYearAndMonth(year int, month time.Month) []*domain.Post {
	matches := make([]*domain.Post, 0)
	for _, p := range s.snap.Load().posts {
		t := p.PostedAt(s.loc)
		if t.Year() == year && t.Month() == month {
			matches = append(matches, p)
		}
	}
	return matches
}

// BlogYears summarizes which months of which years have posts. The result is
// computed on every call and is unordered.
func (s *FileStore) BlogYears() []*domain.BlogYear {
	years := make(map[int]*domain.BlogYear)
	for _, p := range s.snap.Load().posts {
		t := p.PostedAt(s.loc)
		y, ok := years[t.Year()]
		if !ok {
			y = domain.NewBlogYear(t.Year())
			years[t.Year()] = y
		}
		y.AddMonth(t.Month())
	}

	out := make([]*domain.BlogYear, 0, len(years))
	for _, y := range years {
		out = append(out, y)
	}
	return out
}

// PathFor returns where a post with the given timestamp is stored:
// {posts}/{year}/{month}/{postId}.{suffix}.
func (s *FileStore) PathFor(dateTimePosted float64) string {
	t := domain.TimeOf(dateTimePosted, s.loc)
	return filepath.Join(
		s.postsDir,
		strconv.Itoa(t.Year()),
		strconv.Itoa(int(t.Month())),
		domain.PostIDFor(dateTimePosted)+"."+s.suffix,
	)
}

// SaveNewPost writes body as a new post stamped with the current time, then
// reloads the store. Write errors are returned as-is; nothing is retried.
func (s *FileStore) SaveNewPost(body string) (*domain.Post, error) {
	if postfile.StartsWithAttribute(body) {
		return nil, domain.ErrBodyStartsWithAttribute
	}

	posted := domain.TimestampOf(s.now())
	id := domain.PostIDFor(posted)
	path := s.PathFor(posted)

	if s.PostWith(id) != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostIDCollision, id)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostIDCollision, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to check post file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create post directory: %w", err)
	}
	text := postfile.FileTextForNewPost(body, posted)
	if err := renameio.WriteFile(path, []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("failed to write post file: %w", err)
	}
	log.Info().Str("postID", id).Str("path", path).Msg("Saved new post")

	if err := s.InvalidateAndReload(); err != nil {
		return nil, err
	}

	post := s.PostWith(id)
	if post == nil {
		return nil, fmt.Errorf("post %s missing after reload", id)
	}
	return post, nil
}

// window copies posts[start:start+n], clamped to the end of posts.
func window(posts []*domain.Post, start, n int) []*domain.Post {
	end := start + n
	if end > len(posts) || end < start {
		end = len(posts)
	}
	out := make([]*domain.Post, end-start)
	copy(out, posts[start:end])
	return out
}
