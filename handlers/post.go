package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"catstagram/apierr"
	"catstagram/logger"
	"catstagram/posts"
	"catstagram/storage"
)

type PostHandler struct {
	posts     *posts.Service
	images    storage.ImageStore
	log       *logger.Logger
	maxUpload int64
}

func NewPostHandler(svc *posts.Service, images storage.ImageStore, log *logger.Logger, maxUploadBytes int64) *PostHandler {
	return &PostHandler{posts: svc, images: images, log: log, maxUpload: maxUploadBytes}
}

type commentRequest struct {
	AuthorName  string `json:"authorName" binding:"required"`
	AuthorEmail string `json:"authorEmail" binding:"required"`
	Text        string `json:"text" binding:"required_without=Comment"`
	// Comment is the field name older clients send instead of text.
	Comment string `json:"comment"`
}

func (r commentRequest) input() posts.CommentInput {
	text := r.Text
	if text == "" {
		text = r.Comment
	}
	return posts.CommentInput{AuthorName: r.AuthorName, AuthorEmail: r.AuthorEmail, Text: text}
}

// CreatePost accepts multipart/form-data with an "image" file plus
// authorName, authorEmail and caption (or comment).
func (h *PostHandler) CreatePost(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.log, apierr.Validation("image exceeds %d bytes", tooLarge.Limit))
			return
		}
		file = nil
	}

	caption := c.PostForm("caption")
	if caption == "" {
		caption = c.PostForm("comment")
	}
	in := posts.CreateInput{
		AuthorName:  c.PostForm("authorName"),
		AuthorEmail: c.PostForm("authorEmail"),
		Caption:     caption,
	}
	if file != nil {
		in.Image = file.Filename
	}
	// Check the text fields before anything is written to image storage.
	if err := in.Validate(); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ref, err := h.saveImage(ctx, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	in.Image = ref

	post, err := h.posts.Create(ctx, in)
	if err != nil {
		if delErr := h.images.Delete(context.Background(), ref); delErr != nil {
			h.log.Warn("remove orphaned image", "ref", ref, "error", delErr)
		}
		respondError(c, h.log, err)
		return
	}

	h.log.Info("post created", "post_id", post.ID.Hex(), "hashtags", len(post.Hashtags))
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) saveImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ref, err := h.images.Save(ctx, file)
	if err != nil {
		if apierr.KindOf(err) == apierr.KindValidation {
			return "", err
		}
		return "", apierr.Store(err)
	}
	return ref, nil
}

// ListPosts answers 404 when there are no posts at all; clients rely on it.
func (h *PostHandler) ListPosts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.posts.List(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(list) == 0 {
		respondError(c, h.log, apierr.NotFound("posts"))
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListImages returns the public URL of every post image.
func (h *PostHandler) ListImages(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	refs, err := h.posts.ImageRefs(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, h.images.URL(ref))
	}
	c.JSON(http.StatusOK, urls)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.Get(ctx, c.Param("postId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes the post document. The image is removed on a best
// effort basis afterwards.
func (h *PostHandler) DeletePost(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	postID := c.Param("postId")
	post, err := h.posts.Get(ctx, postID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.posts.DeletePost(ctx, postID); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.images.Delete(ctx, post.Image); err != nil {
		h.log.Warn("remove post image", "post_id", postID, "ref", post.Image, "error", err)
	}

	h.log.Info("post deleted", "post_id", postID)
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.AddComment(ctx, c.Param("postId"), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.posts.DeleteComment(ctx, c.Param("postId"), c.Param("commentId")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *PostHandler) AddReply(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.AddReply(ctx, c.Param("postId"), c.Param("commentId"), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) ListHashtags(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tags, err := h.posts.ListHashtags(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// PostsByHashtag takes the tag without its '#', e.g. /posts/hashtags/cats.
func (h *PostHandler) PostsByHashtag(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.posts.FindByHashtag(ctx, c.Param("hashtag"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
