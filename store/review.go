package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "pubDate", Value: -1}, {Key: "_id", Value: 1}}

func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PubDate.IsZero() {
		r.PubDate = time.Now().UTC()
	}
	_, err := db.Reviews().InsertOne(ctx, r)
	return translate(err)
}

func (db *DB) ReviewByID(ctx context.Context, titleID, id string) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"_id": id, "titleId": titleID}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	names, err := db.usernames(ctx, []string{r.AuthorID})
	if err != nil {
		return nil, err
	}
	r.Author = names[r.AuthorID]
	return &r, nil
}

func (db *DB) ListReviews(ctx context.Context, titleID string, p Page) ([]models.Review, int64, error) {
	filter := bson.M{"titleId": titleID}
	total, err := db.Reviews().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := db.Reviews().Find(ctx, filter, findOptions(newestFirst, p))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.AuthorID)
	}
	names, err := db.usernames(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range reviews {
		reviews[i].Author = names[reviews[i].AuthorID]
	}
	return reviews, total, nil
}

func (db *DB) UpdateReview(ctx context.Context, r *models.Review) error {
	res, err := db.Reviews().UpdateOne(ctx, bson.M{"_id": r.ID},
		bson.M{"$set": bson.M{"text": r.Text, "score": r.Score}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteReview(ctx context.Context, id string) error {
	if _, err := db.Comments().DeleteMany(ctx, bson.M{"reviewId": id}); err != nil {
		return err
	}
	res, err := db.Reviews().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) reviewIDs(ctx context.Context, filter bson.M) ([]string, error) {
	cur, err := db.Reviews().Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
