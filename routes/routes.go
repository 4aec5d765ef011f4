package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catstagram/handlers"
	"catstagram/logger"
	"catstagram/middleware"
)

type Deps struct {
	Log    *logger.Logger
	Posts  *handlers.PostHandler
	Health *handlers.HealthHandler
	// Events serves the websocket feed; nil leaves /ws unrouted.
	Events http.Handler

	CORSOrigins []string
	// Limiter guards write routes; nil disables rate limiting.
	Limiter *middleware.IPRateLimiter
	// UploadDir is served under /uploads when images are kept on disk.
	UploadDir      string
	MaxUploadBytes int64
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.CORS(d.CORSOrigins))
	if d.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = d.MaxUploadBytes
	}

	router.GET("/", d.Health.Root)
	router.GET("/health", d.Health.Health)

	if d.UploadDir != "" {
		router.Static("/uploads", d.UploadDir)
	}
	if d.Events != nil {
		router.GET("/ws", gin.WrapH(d.Events))
	}

	write := middleware.RateLimit(d.Limiter)

	posts := router.Group("/posts")
	posts.POST("", write, d.Posts.CreatePost)
	posts.GET("", d.Posts.ListPosts)
	posts.GET("/images", d.Posts.ListImages)
	posts.GET("/hashtags", d.Posts.ListHashtags)
	posts.GET("/hashtags/:hashtag", d.Posts.PostsByHashtag)
	posts.GET("/:postId", d.Posts.GetPost)
	posts.DELETE("/:postId", write, d.Posts.DeletePost)
	posts.POST("/:postId/comments", write, d.Posts.AddComment)
	posts.DELETE("/:postId/comments/:commentId", write, d.Posts.DeleteComment)
	posts.POST("/:postId/comments/:commentId/replies", write, d.Posts.AddReply)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/posts") {
			c.JSON(http.StatusNotFound, handlers.ErrorEnvelope{Error: handlers.APIError{
				Message: "endpoint not found",
				Code:    "not_found",
			}})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}
