package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/dfryer1193/flatblog/blog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePostFile writes a post file relative to {root}/posts.
func writePostFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, postsDirName, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func unixSeconds(t time.Time) float64 {
	return domain.TimestampOf(t)
}

func openStore(t *testing.T, root string, opts ...Option) *FileStore {
	t.Helper()
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	s, err := OpenFileStore(root, opts...)
	require.NoError(t, err)
	return s
}

func seedPosts(t *testing.T, root string, stamps ...string) {
	t.Helper()
	for _, stamp := range stamps {
		writePostFile(t, root, "seed/"+stamp+".markdown", "@date_time_posted "+stamp+"\nBody of "+stamp+"\n")
	}
}

func ids(posts []*domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFileStore_LoadSortsDescending(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1000.5", "3000.25", "2000.125")

	s := openStore(t, root)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"3000_25", "2000_125", "1000_5"}, ids(s.RecentPosts(10)))
	assert.Empty(t, s.Diagnostics())
}

func TestFileStore_LoadIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1000.5")
	writePostFile(t, root, "2016/11/notes.txt", "@date_time_posted 5.5\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, postsDirName, "empty.markdown"), 0755))

	s := openStore(t, root)

	assert.Equal(t, []string{"1000_5"}, ids(s.RecentPosts(10)))
}

func TestFileStore_LoadMissingPostsDir(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "nothing-here"))

	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.RecentPosts(5))
}

func TestFileStore_LoadIsolatesBadFiles(t *testing.T) {
	root := t.TempDir()
	writePostFile(t, root, "2016/11/good.markdown", "@date_time_posted 1480104816.829768\nHello\n")
	bad := writePostFile(t, root, "2016/11/bad.markdown", "@title \"No date\"\nHello\n")
	malformed := writePostFile(t, root, "2016/11/malformed.markdown", "@date_time_posted soon\nHello\n")

	s := openStore(t, root)

	assert.Equal(t, []string{"1480104816_829768"}, ids(s.RecentPosts(10)))

	diags := s.Diagnostics()
	require.Len(t, diags, 2)
	byPath := map[string]error{}
	for _, d := range diags {
		byPath[d.Path] = d.Err
	}
	assert.ErrorIs(t, byPath[bad], domain.ErrMissingRequiredAttribute)
	assert.ErrorIs(t, byPath[malformed], domain.ErrMalformedAttributeValue)
}

func TestFileStore_LoadKeepsOversizedDigitValues(t *testing.T) {
	root := t.TempDir()
	writePostFile(t, root, "2016/11/isbn.markdown", "@date_time_posted 1480104816.5\n@isbn 97803064061571234567890\nReview\n")

	s := openStore(t, root)

	require.Equal(t, 1, s.Len())
	assert.Empty(t, s.Diagnostics())
	v, ok := s.PostWith("1480104816_5").Attributes.Get("isbn")
	require.True(t, ok)
	isbn, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "97803064061571234567890", isbn)
}

func TestFileStore_PostWith(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1480104816.829768")
	s := openStore(t, root)

	post := s.PostWith("1480104816_829768")
	require.NotNil(t, post)
	assert.Equal(t, 1480104816.829768, post.DateTimePosted)
	assert.Equal(t, "Body of 1480104816.829768\n", post.Body)

	assert.Nil(t, s.PostWith("does_not_exist"))
}

func TestFileStore_RecentPosts(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1.0", "2.0", "3.0")
	s := openStore(t, root)

	tests := []struct {
		name     string
		maxCount int
		expected []string
	}{
		{name: "zero", maxCount: 0, expected: nil},
		{name: "negative", maxCount: -1, expected: nil},
		{name: "fewer than available", maxCount: 2, expected: []string{"3_0", "2_0"}},
		{name: "exactly available", maxCount: 3, expected: []string{"3_0", "2_0", "1_0"}},
		{name: "more than available", maxCount: 10, expected: []string{"3_0", "2_0", "1_0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.RecentPosts(tt.maxCount)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestFileStore_RecentPostsEmptyStore(t *testing.T) {
	s := openStore(t, t.TempDir())

	assert.Nil(t, s.RecentPosts(0))
	assert.Nil(t, s.RecentPosts(3))
}

func TestFileStore_RecentPostsReturnsCopy(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1.0", "2.0")
	s := openStore(t, root)

	got := s.RecentPosts(2)
	got[0] = nil

	assert.Equal(t, []string{"2_0", "1_0"}, ids(s.RecentPosts(2)))
}

func TestFileStore_PostsStartingWith(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1.0", "2.0", "3.0", "4.0")
	s := openStore(t, root)

	tests := []struct {
		name     string
		id       string
		maxCount int
		expected []string
	}{
		{name: "from the top", id: "4_0", maxCount: 2, expected: []string{"4_0", "3_0"}},
		{name: "from the middle", id: "3_0", maxCount: 2, expected: []string{"3_0", "2_0"}},
		{name: "runs past the end", id: "2_0", maxCount: 5, expected: []string{"2_0", "1_0"}},
		{name: "last post", id: "1_0", maxCount: 1, expected: []string{"1_0"}},
		{name: "unknown id", id: "9_0", maxCount: 2, expected: nil},
		{name: "zero count", id: "3_0", maxCount: 0, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.PostsStartingWith(tt.id, tt.maxCount)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestFileStore_PostsInYearAndMonth(t *testing.T) {
	root := t.TempDir()
	lastOfDecember := unixSeconds(time.Date(2016, time.December, 31, 23, 59, 59, 500000000, time.UTC))
	firstOfJanuary := unixSeconds(time.Date(2017, time.January, 1, 0, 0, 0, 250000000, time.UTC))
	midDecember := unixSeconds(time.Date(2016, time.December, 15, 12, 0, 0, 0, time.UTC))
	seedPosts(t, root,
		domain.FormatTimestamp(lastOfDecember),
		domain.FormatTimestamp(firstOfJanuary),
		domain.FormatTimestamp(midDecember),
	)
	s := openStore(t, root)

	december := s.PostsInYearAndMonth(2016, time.December)
	assert.Equal(t, []string{domain.PostIDFor(lastOfDecember), domain.PostIDFor(midDecember)}, ids(december))

	january := s.PostsInYearAndMonth(2017, time.January)
	assert.Equal(t, []string{domain.PostIDFor(firstOfJanuary)}, ids(january))

	assert.Empty(t, s.PostsInYearAndMonth(2016, time.January))
	assert.Empty(t, s.PostsInYearAndMonth(2017, time.December))

	none := s.PostsInYearAndMonth(1999, time.March)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFileStore_PostsInYearAndMonthUsesLocation(t *testing.T) {
	root := t.TempDir()
	// 2017-01-01 02:00 UTC is still 2016-12-31 in New York.
	stamp := unixSeconds(time.Date(2017, time.January, 1, 2, 0, 0, 0, time.UTC))
	seedPosts(t, root, domain.FormatTimestamp(stamp))

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	s := openStore(t, root, WithLocation(ny))

	assert.Len(t, s.PostsInYearAndMonth(2016, time.December), 1)
	assert.Empty(t, s.PostsInYearAndMonth(2017, time.January))
}

func TestFileStore_BlogYears(t *testing.T) {
	root := t.TempDir()
	stamps := []time.Time{
		time.Date(2016, time.November, 25, 20, 13, 36, 0, time.UTC),
		time.Date(2016, time.November, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2016, time.December, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2018, time.March, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, ts := range stamps {
		seedPosts(t, root, domain.FormatTimestamp(unixSeconds(ts)))
	}
	s := openStore(t, root)

	years := s.BlogYears()
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	require.Len(t, years, 2)
	assert.Equal(t, 2016, years[0].Year)
	assert.Len(t, years[0].Months, 2)
	assert.True(t, years[0].HasMonth(time.November))
	assert.True(t, years[0].HasMonth(time.December))
	assert.Equal(t, 2018, years[1].Year)
	assert.Len(t, years[1].Months, 1)
	assert.True(t, years[1].HasMonth(time.March))
}

func TestFileStore_BlogYearsEmpty(t *testing.T) {
	s := openStore(t, t.TempDir())
	assert.Empty(t, s.BlogYears())
}

func TestFileStore_SaveNewPost(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1480104816.829768")
	now := time.Date(2024, time.March, 5, 10, 30, 0, 123456000, time.UTC)
	s := openStore(t, root, WithClock(func() time.Time { return now }))

	post, err := s.SaveNewPost("hi")
	require.NoError(t, err)

	assert.Equal(t, "1709634600_123456", post.ID)
	assert.Equal(t, "hi", post.Body)

	found := s.PostWith(post.ID)
	require.NotNil(t, found)
	assert.Equal(t, "hi", found.Body)

	recent := s.RecentPosts(1)
	require.Len(t, recent, 1)
	assert.Equal(t, post.ID, recent[0].ID)
	assert.Equal(t, 2, s.Len())

	expectedPath := filepath.Join(root, postsDirName, "2024", "3", "1709634600_123456.markdown")
	assert.Equal(t, expectedPath, found.SourcePath)
	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, "@date_time_posted 1709634600.123456\nhi", string(content))
}

func TestFileStore_SaveNewPostRejectsCollision(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	s := openStore(t, root, WithClock(func() time.Time { return now }))

	_, err := s.SaveNewPost("first")
	require.NoError(t, err)

	_, err = s.SaveNewPost("second")
	assert.ErrorIs(t, err, domain.ErrPostIDCollision)

	post := s.PostWith(domain.PostIDFor(unixSeconds(now)))
	require.NotNil(t, post)
	assert.Equal(t, "first", post.Body)
}

func TestFileStore_SaveNewPostRejectsAttributeFirstLine(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "timestamp line", body: "@date_time_posted 5\nhi"},
		{name: "plain attribute line", body: "@alice thanks!\nmore"},
		{name: "malformed attribute line", body: "@releaseDate whenever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			seedPosts(t, root, "1.0")
			now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
			s := openStore(t, root, WithClock(func() time.Time { return now }))

			_, err := s.SaveNewPost(tt.body)
			assert.ErrorIs(t, err, domain.ErrBodyStartsWithAttribute)

			assert.Equal(t, 1, s.Len())
			_, statErr := os.Stat(s.PathFor(unixSeconds(now)))
			assert.True(t, errors.Is(statErr, os.ErrNotExist), "post file was written: %v", statErr)
			assert.NoDirExists(t, filepath.Join(root, postsDirName, "2024"))

			// A body that only mentions someone later on is fine.
			post, err := s.SaveNewPost("thanks\n@alice thanks!")
			require.NoError(t, err)
			assert.Equal(t, "thanks\n@alice thanks!", post.Body)
		})
	}
}

func TestFileStore_SaveNewPostWriteFailure(t *testing.T) {
	root := t.TempDir()
	// A regular file where the posts directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(root, postsDirName), []byte("x"), 0644))
	s := NewFileStore(root, WithLocation(time.UTC))

	_, err := s.SaveNewPost("hi")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrPostIDCollision))
	assert.Equal(t, 0, s.Len())
}

func TestFileStore_ReloadPicksUpExternalChanges(t *testing.T) {
	root := t.TempDir()
	seedPosts(t, root, "1.0")
	s := openStore(t, root)
	require.Equal(t, 1, s.Len())

	seedPosts(t, root, "2.0")
	assert.Nil(t, s.PostWith("2_0"))

	require.NoError(t, s.InvalidateAndReload())
	assert.NotNil(t, s.PostWith("2_0"))
	assert.Equal(t, []string{"2_0", "1_0"}, ids(s.RecentPosts(5)))
}

func TestFileStore_PathFor(t *testing.T) {
	s := NewFileStore("/blog", WithLocation(time.UTC), WithSuffix(".md"))

	assert.Equal(t, filepath.Join("/blog", "posts"), s.PostsDir())

	got := s.PathFor(1480104816.829768)
	assert.Equal(t, filepath.Join("/blog", "posts", "2016", "11", "1480104816_829768.md"), got)
}
