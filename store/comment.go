package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"go.mongodb.org/mongo-driver/bson"
)

func (db *DB) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PubDate.IsZero() {
		c.PubDate = time.Now().UTC()
	}
	_, err := db.Comments().InsertOne(ctx, c)
	return translate(err)
}

func (db *DB) CommentByID(ctx context.Context, reviewID, id string) (*models.Comment, error) {
	var c models.Comment
	if err := db.Comments().FindOne(ctx, bson.M{"_id": id, "reviewId": reviewID}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	names, err := db.usernames(ctx, []string{c.AuthorID})
	if err != nil {
		return nil, err
	}
	c.Author = names[c.AuthorID]
	return &c, nil
}

func (db *DB) ListComments(ctx context.Context, reviewID string, p Page) ([]models.Comment, int64, error) {
	filter := bson.M{"reviewId": reviewID}
	total, err := db.Comments().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := db.Comments().Find(ctx, filter, findOptions(newestFirst, p))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	names, err := db.usernames(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range comments {
		comments[i].Author = names[comments[i].AuthorID]
	}
	return comments, total, nil
}

func (db *DB) UpdateComment(ctx context.Context, c *models.Comment) error {
	res, err := db.Comments().UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{"text": c.Text}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteComment(ctx context.Context, id string) error {
	res, err := db.Comments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
