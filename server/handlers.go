package server

import (
	"net/http"

	"github.com/Luismorlan/teamfeed/feed"
	"github.com/Luismorlan/teamfeed/server/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Server exposes the feed service over REST plus a websocket live-query
// endpoint. It holds no per-request state; one instance serves every
// company, scope travels in the x-company-id header.
type Server struct {
	feed *feed.FeedService
}

func NewServer(feedService *feed.FeedService) *Server {
	return &Server{feed: feedService}
}

// Register installs all API routes. Everything except /ping requires the
// company scope header.
func (s *Server) Register(router *gin.Engine) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	scoped := router.Group("/", middlewares.CompanyScope())
	scoped.POST("/posts", s.handleCreatePost)
	scoped.GET("/posts", s.handleGetPosts)
	scoped.PATCH("/posts/:id", s.handleUpdatePost)
	scoped.DELETE("/posts/:id", s.handleDeletePost)
	scoped.POST("/posts/:id/like", s.handleTogglePostLike)
	scoped.POST("/posts/:id/share", s.handleSharePost)
	scoped.GET("/posts/:id/likes", s.handleGetPostLikes)
	scoped.POST("/posts/:id/comments", s.handleAddComment)
	scoped.GET("/posts/:id/comments", s.handleGetComments)
	scoped.PATCH("/comments/:id", s.handleUpdateComment)
	scoped.DELETE("/comments/:id", s.handleDeleteComment)
	scoped.POST("/comments/:id/like", s.handleToggleCommentLike)
	scoped.GET("/comments/:id/likes", s.handleGetCommentLikes)
	scoped.GET("/ws/posts", s.handlePostsStream)
}

type createPostRequest struct {
	AuthorId  string                 `json:"authorId" binding:"required"`
	Content   string                 `json:"content"`
	ImageKeys []string               `json:"imageKeys"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := s.feed.CreatePost(c.Request.Context(), req.AuthorId, middlewares.CompanyId(c), req.Content, req.ImageKeys, req.Metadata)
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) handleGetPosts(c *gin.Context) {
	companyId := middlewares.CompanyId(c)
	ctx := c.Request.Context()

	if authorId := c.Query("authorId"); authorId != "" {
		posts, err := s.feed.GetUserPosts(ctx, companyId, authorId)
		if err != nil {
			abortWithFeedError(c, err)
			return
		}
		c.JSON(http.StatusOK, posts)
		return
	}

	posts, err := s.feed.GetCompanyPosts(ctx, companyId)
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

type updateContentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := s.feed.UpdatePost(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c), req.Content)
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) handleDeletePost(c *gin.Context) {
	if err := s.feed.DeletePost(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c)); err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type likeRequest struct {
	UserId string `json:"userId" binding:"required"`
}

func (s *Server) handleTogglePostLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	liked, err := s.feed.ToggleLike(c.Request.Context(), c.Param("id"), req.UserId, middlewares.CompanyId(c))
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (s *Server) handleSharePost(c *gin.Context) {
	if err := s.feed.IncrementShareCount(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c)); err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetPostLikes(c *gin.Context) {
	likes, err := s.feed.GetPostLikes(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c))
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

type addCommentRequest struct {
	AuthorId string                 `json:"authorId" binding:"required"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := s.feed.AddComment(c.Request.Context(), c.Param("id"), req.AuthorId, middlewares.CompanyId(c), req.Content, req.Metadata)
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) handleGetComments(c *gin.Context) {
	comments, err := s.feed.GetComments(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c))
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := s.feed.UpdateComment(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c), req.Content)
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	if err := s.feed.DeleteComment(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c)); err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleCommentLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	liked, err := s.feed.ToggleCommentLike(c.Request.Context(), c.Param("id"), req.UserId, middlewares.CompanyId(c))
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (s *Server) handleGetCommentLikes(c *gin.Context) {
	likes, err := s.feed.GetCommentLikes(c.Request.Context(), c.Param("id"), middlewares.CompanyId(c))
	if err != nil {
		abortWithFeedError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": err.Error()})
}

// abortWithFeedError maps the feed error taxonomy onto HTTP statuses.
// Mutating failures and read failures share the mapping; subscription
// errors never reach here, they travel inside snapshots.
func abortWithFeedError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, feed.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_FAILED", "msg": err.Error()})
	case errors.Is(err, feed.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "msg": err.Error()})
	case errors.Is(err, feed.ErrConflicted):
		c.JSON(http.StatusConflict, gin.H{"code": "CONFLICTED", "msg": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "msg": err.Error()})
	}
}
