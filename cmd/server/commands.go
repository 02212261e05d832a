package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dfryer1193/flatblog/blog/application"
	"github.com/dfryer1193/flatblog/blog/persistence"
	"github.com/dfryer1193/flatblog/internal/config"
	"github.com/dfryer1193/flatblog/internal/middleware"
	"github.com/dfryer1193/flatblog/internal/rest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	var blogFolder string

	root := &cobra.Command{
		Use:           "flatblog",
		Short:         "A blog whose posts are plain text files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&blogFolder, "blog", "", "blog folder (overrides BLOG_FOLDER)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, err
		}
		if blogFolder != "" {
			cfg.BlogFolder = blogFolder
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(loadConfig), newPostCmd(loadConfig))
	return root
}

func openStore(cfg *config.Config) (*persistence.FileStore, error) {
	store, err := persistence.OpenFileStore(cfg.BlogFolder, persistence.WithLocation(cfg.Location))
	if err != nil {
		return nil, err
	}
	for _, d := range store.Diagnostics() {
		log.Warn().Err(d.Err).Str("path", d.Path).Msg("Post not loaded")
	}
	log.Info().
		Str("postsDir", store.PostsDir()).
		Str("timezone", cfg.Location.String()).
		Int("posts", store.Len()).
		Msg("Opened blog")
	return store, nil
}

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}

			store, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to load posts: %w", err)
			}
			svc := application.NewPostService(store, application.NewMarkdownRenderer(cfg.BaseURL), cfg.Location, cfg.PostsPerPage)

			return serve(cfg.Port, newRouter(svc))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides BLOG_PORT)")
	return cmd
}

func newRouter(svc *application.PostService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(r, svc)
	return r
}

func serve(port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting server on port :" + fmt.Sprint(port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newPostCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Save a new post read from stdin or --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var text []byte
			if file != "" {
				text, err = os.ReadFile(file)
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read post text: %w", err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to load posts: %w", err)
			}
			svc := application.NewPostService(store, application.NewMarkdownRenderer(cfg.BaseURL), cfg.Location, cfg.PostsPerPage)

			view, err := svc.Publish(string(text))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the post body from this file")
	return cmd
}
