// Package store persists post aggregates. Every mutation is one atomic
// document update, so concurrent writers on the same post do not lose
// each other's comments.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catstagram/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDuplicateID     = errors.New("duplicate post id")
)

type PostRepository interface {
	Insert(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// FindAll returns posts in creation order.
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByHashtag(ctx context.Context, tag string) ([]models.Post, error)
	// DistinctHashtags is the sorted, de-duplicated union of every post's tags.
	DistinctHashtags(ctx context.Context) ([]string, error)
	ImageRefs(ctx context.Context) ([]string, error)

	// PushComment appends c and adds the tags not yet on the post, returning
	// the updated aggregate.
	PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment, tags []string) (*models.Post, error)
	PushReply(ctx context.Context, postID, commentID primitive.ObjectID, r models.Reply, tags []string) (*models.Post, error)
	// PullComment removes a comment together with its replies. Hashtags stay.
	PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
