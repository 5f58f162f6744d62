package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB is the MongoDB implementation of Store.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var _ Store = (*DB)(nil)

// Unique index names; duplicate-key errors are attributed to a field by index name.
const (
	idxUsername = "uniq_username"
	idxEmail    = "uniq_email"
	idxTermSlug = "uniq_kind_slug"
	idxReview   = "uniq_title_author"
)

// Server error codes.
const (
	codeNamespaceExists           = 48
	codeDocumentValidationFailure = 121
)

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	slog.Info("connected to mongodb", "db", dbName)
	db := &DB{
		Client:   client,
		Database: client.Database(dbName),
	}
	if err := db.ensureReviewSchema(ctx); err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Terms() *mongo.Collection {
	return db.Database.Collection("terms")
}

func (db *DB) Titles() *mongo.Collection {
	return db.Database.Collection("titles")
}

func (db *DB) Reviews() *mongo.Collection {
	return db.Database.Collection("reviews")
}

func (db *DB) Comments() *mongo.Collection {
	return db.Database.Collection("comments")
}

func (db *DB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and listing indexes.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}
	plan := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{db.Users(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique(idxUsername)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique(idxEmail)},
		}},
		{db.Terms(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "slug", Value: 1}}, Options: unique(idxTermSlug)},
		}},
		{db.Titles(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "categoryId", Value: 1}}},
			{Keys: bson.D{{Key: "genreIds", Value: 1}}},
		}},
		{db.Reviews(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "titleId", Value: 1}, {Key: "authorId", Value: 1}}, Options: unique(idxReview)},
			{Keys: bson.D{{Key: "titleId", Value: 1}, {Key: "pubDate", Value: -1}}},
		}},
		{db.Comments(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "reviewId", Value: 1}, {Key: "pubDate", Value: -1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
		}},
	}
	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.models); err != nil {
			return err
		}
	}
	return nil
}

// ensureReviewSchema installs a validator so the score range holds even for writes bypassing the API.
func (db *DB) ensureReviewSchema(ctx context.Context) error {
	validator := bson.M{"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"titleId", "authorId", "text", "score", "pubDate"},
		"properties": bson.M{
			"score": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 10},
		},
	}}
	err := db.Database.CreateCollection(ctx, "reviews", options.CreateCollection().SetValidator(validator))
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		return db.Database.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: "reviews"},
			{Key: "validator", Value: validator},
		}).Err()
	}
	return err
}

// translate maps driver errors to the Store error contract.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, idxUsername):
			return &DuplicateError{Field: "username"}
		case strings.Contains(msg, idxEmail):
			return &DuplicateError{Field: "email"}
		case strings.Contains(msg, idxTermSlug):
			return &DuplicateError{Field: "slug"}
		case strings.Contains(msg, idxReview):
			return &DuplicateError{Field: "review"}
		}
		return &DuplicateError{Field: "unknown"}
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == codeDocumentValidationFailure {
				return ErrConstraint
			}
		}
	}
	return err
}

func findOptions(sort bson.D, p Page) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if p.Offset > 0 {
		opts.SetSkip(int64(p.Offset))
	}
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return opts
}

// usernames resolves user ids to usernames for review and comment listings.
func (db *DB) usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID       string `bson:"_id"`
			Username string `bson:"username"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Username
	}
	return out, cur.Err()
}
