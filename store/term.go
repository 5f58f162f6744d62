package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"go.mongodb.org/mongo-driver/bson"
)

func (db *DB) CreateTerm(ctx context.Context, t *models.Term) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := db.Terms().InsertOne(ctx, t)
	return translate(err)
}

func (db *DB) TermBySlug(ctx context.Context, kind models.TermKind, slug string) (*models.Term, error) {
	var t models.Term
	if err := db.Terms().FindOne(ctx, bson.M{"kind": kind, "slug": slug}).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (db *DB) ListTerms(ctx context.Context, f TermFilter) ([]models.Term, int64, error) {
	filter := bson.M{"kind": f.Kind}
	if f.Search != "" {
		filter["name"] = f.Search
	}
	total, err := db.Terms().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := db.Terms().Find(ctx, filter, findOptions(bson.D{{Key: "name", Value: 1}, {Key: "slug", Value: 1}}, f.Page))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	terms := []models.Term{}
	if err := cur.All(ctx, &terms); err != nil {
		return nil, 0, err
	}
	return terms, total, nil
}

func (db *DB) DeleteTerm(ctx context.Context, kind models.TermKind, slug string) error {
	t, err := db.TermBySlug(ctx, kind, slug)
	if err != nil {
		return err
	}
	switch kind {
	case models.KindCategory:
		_, err = db.Titles().UpdateMany(ctx, bson.M{"categoryId": t.ID}, bson.M{"$set": bson.M{"categoryId": nil}})
	case models.KindGenre:
		_, err = db.Titles().UpdateMany(ctx, bson.M{"genreIds": t.ID}, bson.M{"$pull": bson.M{"genreIds": t.ID}})
	}
	if err != nil {
		return err
	}
	_, err = db.Terms().DeleteOne(ctx, bson.M{"_id": t.ID})
	return err
}

// termsByID loads the terms referenced by a batch of titles.
func (db *DB) termsByID(ctx context.Context, ids []string) (map[string]models.Term, error) {
	out := make(map[string]models.Term, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := db.Terms().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var terms []models.Term
	if err := cur.All(ctx, &terms); err != nil {
		return nil, err
	}
	for _, t := range terms {
		out[t.ID] = t
	}
	return out, nil
}
