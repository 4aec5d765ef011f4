package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the root aggregate. Comments and their replies are embedded in
// the same document and share its lifecycle.
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Image       string             `bson:"image" json:"image"`
	AuthorName  string             `bson:"authorName" json:"authorName"`
	AuthorEmail string             `bson:"authorEmail" json:"authorEmail"`
	Caption     string             `bson:"caption,omitempty" json:"caption"`
	Comments    []Comment          `bson:"comments" json:"comments"`
	Hashtags    []string           `bson:"hashtags" json:"hashtags"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	AuthorName  string             `bson:"authorName" json:"authorName"`
	AuthorEmail string             `bson:"authorEmail" json:"authorEmail"`
	Text        string             `bson:"text" json:"text"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Replies     []Reply            `bson:"replies" json:"replies"`
}

// Reply hangs off a Comment. Replies do not nest further.
type Reply struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	AuthorName  string             `bson:"authorName" json:"authorName"`
	AuthorEmail string             `bson:"authorEmail" json:"authorEmail"`
	Text        string             `bson:"text" json:"text"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// FindComment returns the comment with the given id, or nil.
func (p *Post) FindComment(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hand out posts without sharing
// slices with a backing store. Nil slices come back empty.
func (p Post) Clone() Post {
	out := p
	out.Hashtags = make([]string, len(p.Hashtags))
	copy(out.Hashtags, p.Hashtags)
	out.Comments = make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Replies = make([]Reply, len(p.Comments[i].Replies))
		copy(c.Replies, p.Comments[i].Replies)
		out.Comments[i] = c
	}
	return out
}
