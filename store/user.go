package store

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	_, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	return translate(err)
}

func (db *DB) userBy(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id string) (*models.User, error) {
	return db.userBy(ctx, bson.M{"_id": id})
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.userBy(ctx, bson.M{"username": username})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.userBy(ctx, bson.M{"email": email})
}

func (db *DB) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		filter["username"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	total, err := db.Users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := db.Users().Find(ctx, filter, findOptions(bson.D{{Key: "username", Value: 1}}, f.Page))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser overwrites every mutable field of the stored user.
func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	set := bson.M{
		"username":         user.Username,
		"email":            user.Email,
		"firstName":        user.FirstName,
		"lastName":         user.LastName,
		"bio":              user.Bio,
		"role":             user.Role,
		"isStaff":          user.IsStaff,
		"isActive":         user.IsActive,
		"confirmationCode": user.ConfirmationCode,
		"codeIssuedAt":     user.CodeIssuedAt,
	}
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id string) error {
	reviewIDs, err := db.reviewIDs(ctx, bson.M{"authorId": id})
	if err != nil {
		return err
	}
	if len(reviewIDs) > 0 {
		if _, err := db.Comments().DeleteMany(ctx, bson.M{"reviewId": bson.M{"$in": reviewIDs}}); err != nil {
			return err
		}
		if _, err := db.Reviews().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": reviewIDs}}); err != nil {
			return err
		}
	}
	if _, err := db.Comments().DeleteMany(ctx, bson.M{"authorId": id}); err != nil {
		return err
	}
	res, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
