package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func mustMongoRepository(t *testing.T) *MongoRepository {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv("CATSTAGRAM_MONGO_TEST_URI"))
	if uri == "" {
		t.Skip("set CATSTAGRAM_MONGO_TEST_URI to run MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("catstagram_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	repo := NewMongoRepository(db.Collection("posts"))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return repo
}

func TestMongoAggregateLifecycle(t *testing.T) {
	repo := mustMongoRepository(t)
	ctx := context.Background()

	p := newPost("hello #world", "#world")
	p.CreatedAt = p.CreatedAt.Truncate(time.Millisecond)
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	c := newComment("great #world #view")
	got, err := repo.PushComment(ctx, p.ID, c, []string{"#world", "#view"})
	if err != nil {
		t.Fatalf("PushComment: %v", err)
	}
	if want := []string{"#world", "#view"}; !reflect.DeepEqual(got.Hashtags, want) {
		t.Fatalf("hashtags: got=%v want=%v", got.Hashtags, want)
	}

	if _, err := repo.PushReply(ctx, p.ID, primitive.NewObjectID(), replyFixture("x"), nil); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("PushReply unknown comment: got=%v", err)
	}
	if _, err := repo.PushReply(ctx, primitive.NewObjectID(), c.ID, replyFixture("x"), nil); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("PushReply unknown post: got=%v", err)
	}

	got, err = repo.PushReply(ctx, p.ID, c.ID, replyFixture("#cute"), []string{"#cute"})
	if err != nil {
		t.Fatalf("PushReply: %v", err)
	}
	if len(got.Comments[0].Replies) != 1 {
		t.Fatalf("reply missing: %+v", got.Comments[0])
	}

	if err := repo.PullComment(ctx, p.ID, c.ID); err != nil {
		t.Fatalf("PullComment: %v", err)
	}
	got, err = repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Comments) != 0 || len(got.Hashtags) != 3 {
		t.Fatalf("after PullComment: %+v", got)
	}

	byTag, err := repo.FindByHashtag(ctx, "#cute")
	if err != nil || len(byTag) != 1 {
		t.Fatalf("FindByHashtag: got=%v err=%v", byTag, err)
	}

	tags, err := repo.DistinctHashtags(ctx)
	if err != nil {
		t.Fatalf("DistinctHashtags: %v", err)
	}
	if want := []string{"#cute", "#view", "#world"}; !reflect.DeepEqual(tags, want) {
		t.Fatalf("DistinctHashtags: got=%v want=%v", tags, want)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("FindByID after delete: got=%v", err)
	}
}

func TestMongoConcurrentCommentsAreNotLost(t *testing.T) {
	repo := mustMongoRepository(t)
	ctx := context.Background()

	p := newPost("")
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.PushComment(ctx, p.ID, newComment("hi"), nil); err != nil {
				t.Errorf("PushComment: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Comments) != writers {
		t.Fatalf("lost writes: got=%d want=%d", len(got.Comments), writers)
	}
}
