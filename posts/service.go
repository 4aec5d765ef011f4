// Package posts owns the post aggregate rules: required fields, identity
// and timestamps, and the append-only hashtag index. Persistence is
// delegated to a store.PostRepository.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catstagram/apierr"
	"catstagram/hashtag"
	"catstagram/models"
	"catstagram/store"
)

type CreateInput struct {
	Image       string `json:"image" validate:"required,notblank"`
	AuthorName  string `json:"authorName" validate:"required,notblank"`
	AuthorEmail string `json:"authorEmail" validate:"required,notblank"`
	Caption     string `json:"caption"`
}

// CommentInput is shared by comments and replies.
type CommentInput struct {
	AuthorName  string `json:"authorName" validate:"required,notblank"`
	AuthorEmail string `json:"authorEmail" validate:"required,notblank"`
	Text        string `json:"text" validate:"required,notblank"`
}

type Service struct {
	repo     store.PostRepository
	notifier Notifier
	now      func() time.Time
	newID    func() primitive.ObjectID
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() primitive.ObjectID) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo store.PostRepository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: nopNotifier{},
		now:      time.Now,
		newID:    primitive.NewObjectID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:          s.newID(),
		Image:       strings.TrimSpace(in.Image),
		AuthorName:  strings.TrimSpace(in.AuthorName),
		AuthorEmail: strings.TrimSpace(in.AuthorEmail),
		Caption:     in.Caption,
		Comments:    []models.Comment{},
		Hashtags:    hashtag.Unique(hashtag.Extract(in.Caption)),
		CreatedAt:   s.timestamp(),
	}
	if err := s.repo.Insert(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}

	s.notifier.Publish(Event{Type: EventPostCreated, PostID: post.ID.Hex()})
	return post, nil
}

// Get never reports anything other than NotFound for an unknown or
// malformed id.
func (s *Service) Get(ctx context.Context, postID string) (*models.Post, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return post, nil
}

func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

func (s *Service) AddComment(ctx context.Context, postID string, in CommentInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}

	c := models.Comment{
		ID:          s.newID(),
		AuthorName:  strings.TrimSpace(in.AuthorName),
		AuthorEmail: strings.TrimSpace(in.AuthorEmail),
		Text:        in.Text,
		CreatedAt:   s.timestamp(),
		Replies:     []models.Reply{},
	}
	post, err := s.repo.PushComment(ctx, id, c, hashtag.Unique(hashtag.Extract(in.Text)))
	if err != nil {
		return nil, storeErr("add comment", err)
	}

	s.notifier.Publish(Event{Type: EventCommentAdded, PostID: id.Hex(), CommentID: c.ID.Hex()})
	return post, nil
}

func (s *Service) AddReply(ctx context.Context, postID, commentID string, in CommentInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	cid, err := s.commentID(ctx, pid, commentID)
	if err != nil {
		return nil, err
	}

	r := models.Reply{
		ID:          s.newID(),
		AuthorName:  strings.TrimSpace(in.AuthorName),
		AuthorEmail: strings.TrimSpace(in.AuthorEmail),
		Text:        in.Text,
		CreatedAt:   s.timestamp(),
	}
	post, err := s.repo.PushReply(ctx, pid, cid, r, hashtag.Unique(hashtag.Extract(in.Text)))
	if err != nil {
		return nil, storeErr("add reply", err)
	}

	s.notifier.Publish(Event{Type: EventReplyAdded, PostID: pid.Hex(), CommentID: cid.Hex(), ReplyID: r.ID.Hex()})
	return post, nil
}

// DeleteComment removes the comment and its replies. Tags the comment
// contributed stay on the post.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID string) error {
	pid, err := parseID(postID, "post")
	if err != nil {
		return err
	}
	cid, err := s.commentID(ctx, pid, commentID)
	if err != nil {
		return err
	}
	if err := s.repo.PullComment(ctx, pid, cid); err != nil {
		return storeErr("delete comment", err)
	}

	s.notifier.Publish(Event{Type: EventCommentDeleted, PostID: pid.Hex(), CommentID: cid.Hex()})
	return nil
}

func (s *Service) DeletePost(ctx context.Context, postID string) error {
	id, err := parseID(postID, "post")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete post", err)
	}

	s.notifier.Publish(Event{Type: EventPostDeleted, PostID: id.Hex()})
	return nil
}

// ListHashtags is sorted, so two calls without a write in between agree.
func (s *Service) ListHashtags(ctx context.Context) ([]string, error) {
	tags, err := s.repo.DistinctHashtags(ctx)
	if err != nil {
		return nil, storeErr("list hashtags", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// FindByHashtag accepts the tag with or without its leading '#'. Matching
// is exact and case sensitive.
func (s *Service) FindByHashtag(ctx context.Context, tag string) ([]models.Post, error) {
	tag = hashtag.Normalize(tag)
	if tag == "" {
		return nil, apierr.Validation("hashtag is required")
	}
	posts, err := s.repo.FindByHashtag(ctx, tag)
	if err != nil {
		return nil, storeErr("find by hashtag", err)
	}
	return posts, nil
}

// ImageRefs returns the stored image reference of every post in creation
// order.
func (s *Service) ImageRefs(ctx context.Context) ([]string, error) {
	refs, err := s.repo.ImageRefs(ctx)
	if err != nil {
		return nil, storeErr("list images", err)
	}
	return refs, nil
}

// BSON keeps milliseconds; truncating here makes the returned post equal
// to what a later read gives back.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Validate reports every missing required field at once.
func (in CreateInput) Validate() error {
	return check(in)
}

func (in CommentInput) validate() error {
	return check(in)
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound(what)
	}
	return id, nil
}

// commentID parses a comment id. A malformed one is only reported as a
// missing comment once the post itself is known to exist.
func (s *Service) commentID(ctx context.Context, postID primitive.ObjectID, raw string) (primitive.ObjectID, error) {
	id, err := parseID(raw, "comment")
	if err == nil {
		return id, nil
	}
	if _, findErr := s.repo.FindByID(ctx, postID); findErr != nil {
		return primitive.NilObjectID, storeErr("find post", findErr)
	}
	return primitive.NilObjectID, err
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrPostNotFound):
		return apierr.NotFound("post")
	case errors.Is(err, store.ErrCommentNotFound):
		return apierr.NotFound("comment")
	default:
		return apierr.Store(fmt.Errorf("%s: %w", op, err))
	}
}
