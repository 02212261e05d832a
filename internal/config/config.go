package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBlogFolder   = "./blog"
	defaultPort         = 8080
	defaultPostsPerPage = 100
)

// Config holds the server settings. Values come from the environment and may
// be overridden by command-line flags.
type Config struct {
	BlogFolder   string
	Port         int
	PostsPerPage int
	BaseURL      string
	Location     *time.Location
	LogLevel     zerolog.Level
}

// FromEnv reads BLOG_* variables, falling back to defaults for anything unset.
func FromEnv() (*Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{
		BlogFolder:   defaultBlogFolder,
		Port:         defaultPort,
		PostsPerPage: defaultPostsPerPage,
		Location:     time.Local,
		LogLevel:     zerolog.InfoLevel,
	}

	if v, ok := lookup("BLOG_FOLDER"); ok && v != "" {
		cfg.BlogFolder = v
	}
	if v, ok := lookup("BLOG_BASE_URL"); ok {
		cfg.BaseURL = v
	}

	var err error
	if cfg.Port, err = intFrom(lookup, "BLOG_PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.PostsPerPage, err = intFrom(lookup, "BLOG_POSTS_PER_PAGE", cfg.PostsPerPage); err != nil {
		return nil, err
	}

	if v, ok := lookup("BLOG_TIMEZONE"); ok && v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BLOG_TIMEZONE %q: %w", v, err)
		}
		cfg.Location = loc
	}

	if v, ok := lookup("BLOG_LOG_LEVEL"); ok && v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BLOG_LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func intFrom(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive integer", key, v)
	}
	return n, nil
}
