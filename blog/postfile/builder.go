package postfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dfryer1193/flatblog/blog/domain"
)

// postBuilder accumulates one post. It leaves attribute mode at the first
// line that is not an attribute and never returns to it.
type postBuilder struct {
	attrs        *domain.Attributes
	body         strings.Builder
	inAttributes bool
	lines        int
}

func newPostBuilder() *postBuilder {
	return &postBuilder{attrs: domain.NewAttributes(), inAttributes: true}
}

// addLine consumes one line, terminator included.
func (b *postBuilder) addLine(line string) error {
	b.lines++
	if b.inAttributes {
		key, value, ok, err := ParseLine(line)
		if err != nil {
			return fmt.Errorf("%s: %w", describeLine(b.lines, line), err)
		}
		if ok {
			b.attrs.Set(key, value)
			return nil
		}
		b.inAttributes = false
	}
	b.body.WriteString(line)
	return nil
}

func (b *postBuilder) build(sourcePath string) (*domain.Post, error) {
	return newPost(b.attrs, b.body.String(), sourcePath)
}

// BuildPost builds a post from the lines of one file. Lines are expected to
// carry their own terminators; the body is their verbatim concatenation
// starting at the first line that is not an attribute.
func BuildPost(lines []string, sourcePath string) (*domain.Post, error) {
	b := newPostBuilder()
	for _, line := range lines {
		if err := b.addLine(line); err != nil {
			return nil, err
		}
	}
	return b.build(sourcePath)
}

// ReadPost reads a post from r. Lines go through the builder until the body
// starts; the rest of the body is copied as-is.
func ReadPost(r io.Reader, sourcePath string) (*domain.Post, error) {
	br := bufio.NewReader(r)
	b := newPostBuilder()

	for b.inAttributes {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read %s: %w", sourcePath, err)
		}
		if line != "" {
			if aerr := b.addLine(line); aerr != nil {
				return nil, aerr
			}
		}
		if err != nil {
			break
		}
	}

	if _, err := io.Copy(&b.body, br); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourcePath, err)
	}

	return b.build(sourcePath)
}

// ReadPostFile opens and reads the post stored at path.
func ReadPostFile(path string) (*domain.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open post file: %w", err)
	}
	defer f.Close()

	return ReadPost(f, path)
}

func newPost(attrs *domain.Attributes, body, sourcePath string) (*domain.Post, error) {
	v, ok := attrs.Get(domain.DateTimePostedKey)
	if !ok {
		return nil, domain.ErrMissingRequiredAttribute
	}
	posted, ok := v.AsFloat()
	if !ok {
		return nil, &domain.AttributeError{Key: domain.DateTimePostedKey, Value: v.Text(), Err: fmt.Errorf("want float, got %s", v.Kind)}
	}

	return &domain.Post{
		ID:             domain.PostIDFor(posted),
		DateTimePosted: posted,
		Attributes:     attrs,
		Body:           body,
		SourcePath:     sourcePath,
	}, nil
}
