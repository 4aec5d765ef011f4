package posts

type EventType string

const (
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventCommentAdded   EventType = "comment_added"
	EventCommentDeleted EventType = "comment_deleted"
	EventReplyAdded     EventType = "reply_added"
)

// Event describes a committed change to one post.
type Event struct {
	Type      EventType `json:"type"`
	PostID    string    `json:"postId"`
	CommentID string    `json:"commentId,omitempty"`
	ReplyID   string    `json:"replyId,omitempty"`
}

// Notifier receives events after the store accepted a write. Publish must
// not block the request.
type Notifier interface {
	Publish(Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}
