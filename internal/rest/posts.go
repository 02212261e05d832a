package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dfryer1193/flatblog/api"
	"github.com/dfryer1193/flatblog/blog/application"
	"github.com/dfryer1193/flatblog/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type PostsHandler struct {
	svc *application.PostService
}

func (h *PostsHandler) GetRecentPosts(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	views, err := h.svc.RecentPosts(limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostList(views))
}

func (h *PostsHandler) GetPost(c *gin.Context) {
	view, err := h.svc.Post(c.Param("postId"))
	if errors.Is(err, application.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, api.Error{Error: err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPost(view))
}

func (h *PostsHandler) GetPostsStartingWith(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	views, err := h.svc.PostsStartingWith(c.Param("postId"), limit)
	if errors.Is(err, application.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, api.Error{Error: err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostList(views))
}

func (h *PostsHandler) GetArchive(c *gin.Context) {
	years := h.svc.Archive()

	out := make([]api.ArchiveYear, 0, len(years))
	for _, y := range years {
		ay := api.ArchiveYear{Year: y.Year, Months: make([]api.ArchiveMonth, 0, len(y.Months))}
		for _, m := range y.Months {
			ay.Months = append(ay.Months, api.ArchiveMonth{
				Month: int(m.Month),
				Name:  m.Name,
				Link:  fmt.Sprintf("/archive/%d/%d", y.Year, int(m.Month)),
			})
		}
		out = append(out, ay)
	}
	c.JSON(http.StatusOK, out)
}

func (h *PostsHandler) GetArchiveMonth(c *gin.Context) {
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid year or month"})
		return
	}

	views, err := h.svc.PostsInMonth(year, time.Month(month))
	if err != nil {
		internalError(c, err)
		return
	}
	if len(views) == 0 {
		c.JSON(http.StatusNotFound, api.Error{Error: "no posts in that month"})
		return
	}
	c.JSON(http.StatusOK, toPostList(views))
}

func (h *PostsHandler) PostNewPost(c *gin.Context) {
	var req api.NewPost
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	view, err := h.svc.Publish(req.Text)
	switch {
	case errors.Is(err, application.ErrEmptyPost), errors.Is(err, domain.ErrBodyStartsWithAttribute):
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrPostIDCollision):
		c.JSON(http.StatusConflict, api.Error{Error: err.Error()})
		return
	case err != nil:
		internalError(c, err)
		return
	}

	c.Header("Location", view.Permalink)
	c.JSON(http.StatusCreated, toPost(view))
}

// limitParam reads ?limit=; 0 means the service default.
func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "limit must be a positive integer"})
		return 0, false
	}
	return n, true
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, api.Error{Error: "internal error"})
}

func toPost(v *application.PostView) api.Post {
	return api.Post{
		ID:         v.ID,
		Title:      v.Title,
		PostedAt:   v.PostedAt,
		Date:       v.DateString,
		Permalink:  v.Permalink,
		Attributes: v.Attributes,
		Body:       v.Body,
		HTML:       v.HTML,
		Snippet:    v.Snippet,
	}
}

func toPostList(views []*application.PostView) api.PostList {
	out := api.PostList{Posts: make([]api.Post, 0, len(views))}
	for _, v := range views {
		out.Posts = append(out.Posts, toPost(v))
	}
	return out
}
