package rest

import (
	"github.com/dfryer1193/flatblog/blog/application"
	"github.com/gin-gonic/gin"
)

// NewApi registers the blog routes on router.
func NewApi(router *gin.Engine, svc *application.PostService) {
	h := &PostsHandler{svc: svc}

	router.GET("/posts", h.GetRecentPosts)
	router.POST("/posts", h.PostNewPost)

	post := router.Group("/post")
	{
		post.GET("/:postId", h.GetPost)
		post.GET("/:postId/following", h.GetPostsStartingWith)
	}

	archive := router.Group("/archive")
	{
		archive.GET("", h.GetArchive)
		archive.GET("/:year/:month", h.GetArchiveMonth)
	}
}
