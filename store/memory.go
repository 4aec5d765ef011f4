package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catstagram/hashtag"
	"catstagram/models"
)

// MemoryRepository keeps posts in process. It backs tests and the
// STORE_DRIVER=memory mode; data is gone on restart.
type MemoryRepository struct {
	mu    sync.RWMutex
	posts []*models.Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(post.ID) >= 0 {
		return ErrDuplicateID
	}
	p := post.Clone()
	r.posts = append(r.posts, &p)
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	p := r.posts[i].Clone()
	return &p, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	return r.filter(ctx, func(*models.Post) bool { return true })
}

func (r *MemoryRepository) FindByHashtag(ctx context.Context, tag string) ([]models.Post, error) {
	return r.filter(ctx, func(p *models.Post) bool { return hashtag.Contains(p.Hashtags, tag) })
}

func (r *MemoryRepository) DistinctHashtags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := []string{}
	for _, p := range r.posts {
		all = hashtag.Merge(all, p.Hashtags)
	}
	sort.Strings(all)
	return all, nil
}

func (r *MemoryRepository) ImageRefs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p.Image)
	}
	return out, nil
}

func (r *MemoryRepository) PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment, tags []string) (*models.Post, error) {
	return r.update(ctx, postID, func(p *models.Post) error {
		c.Replies = append([]models.Reply{}, c.Replies...)
		p.Comments = append(p.Comments, c)
		p.Hashtags = hashtag.Merge(p.Hashtags, tags)
		return nil
	})
}

func (r *MemoryRepository) PushReply(ctx context.Context, postID, commentID primitive.ObjectID, reply models.Reply, tags []string) (*models.Post, error) {
	return r.update(ctx, postID, func(p *models.Post) error {
		c := p.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		c.Replies = append(c.Replies, reply)
		p.Hashtags = hashtag.Merge(p.Hashtags, tags)
		return nil
	})
}

func (r *MemoryRepository) PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	_, err := r.update(ctx, postID, func(p *models.Post) error {
		for i := range p.Comments {
			if p.Comments[i].ID == commentID {
				p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
				return nil
			}
		}
		return ErrCommentNotFound
	})
	return err
}

func (r *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return ErrPostNotFound
	}
	r.posts = append(r.posts[:i], r.posts[i+1:]...)
	return nil
}

// update applies fn to a copy of the post and stores it only if fn
// succeeds, so a failed mutation leaves the stored aggregate untouched.
func (r *MemoryRepository) update(ctx context.Context, id primitive.ObjectID, fn func(*models.Post) error) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	next := r.posts[i].Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	r.posts[i] = &next
	out := next.Clone()
	return &out, nil
}

func (r *MemoryRepository) filter(ctx context.Context, keep func(*models.Post) bool) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) indexOf(id primitive.ObjectID) int {
	for i, p := range r.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
