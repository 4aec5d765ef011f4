package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catstagram/models"
)

// MongoRepository stores one document per post. Comment and reply writes
// use $push/$addToSet in a single update, which MongoDB applies atomically
// per document.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes creates the multikey index used by hashtag lookups.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hashtags", Value: 1}},
		Options: options.Index().SetName("hashtags_1"),
	})
	if err != nil {
		return fmt.Errorf("create hashtags index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, post *models.Post) error {
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) FindByHashtag(ctx context.Context, tag string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"hashtags": tag})
}

func (r *MongoRepository) DistinctHashtags(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "hashtags", bson.M{})
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *MongoRepository) ImageRefs(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"image": 1})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Image string `bson:"image"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, d.Image)
	}
	return refs, nil
}

func (r *MongoRepository) PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment, tags []string) (*models.Post, error) {
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}
	update := bson.M{
		"$push":     bson.M{"comments": c},
		"$addToSet": bson.M{"hashtags": bson.M{"$each": nonNil(tags)}},
	}
	post, err := r.findOneAndUpdate(ctx, bson.M{"_id": postID}, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (r *MongoRepository) PushReply(ctx context.Context, postID, commentID primitive.ObjectID, reply models.Reply, tags []string) (*models.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{
		"$push":     bson.M{"comments.$.replies": reply},
		"$addToSet": bson.M{"hashtags": bson.M{"$each": nonNil(tags)}},
	}
	post, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missing(ctx, postID)
	}
	return post, err
}

func (r *MongoRepository) PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, postID)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// missing decides which NotFound applies once a post+comment filter matched
// nothing.
func (r *MongoRepository) missing(ctx context.Context, postID primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return ErrCommentNotFound
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
