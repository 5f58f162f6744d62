package store

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// titleRow is a title as produced by the rating pipeline.
type titleRow struct {
	models.Title `bson:",inline"`
	Rating       *float64 `bson:"rating"`
}

func (db *DB) CreateTitle(ctx context.Context, t *models.Title) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.GenreIDs == nil {
		t.GenreIDs = []string{}
	}
	_, err := db.Titles().InsertOne(ctx, t)
	return translate(err)
}

func (db *DB) TitleByID(ctx context.Context, id string) (*models.Title, error) {
	titles, err := db.aggregateTitles(ctx, bson.M{"_id": id}, "", Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, ErrNotFound
	}
	return &titles[0], nil
}

func (db *DB) ListTitles(ctx context.Context, f TitleFilter) ([]models.Title, int64, error) {
	match := bson.M{}
	if f.Name != "" {
		match["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	if f.Year != nil {
		match["year"] = *f.Year
	}
	if f.Category != "" {
		t, err := db.TermBySlug(ctx, models.KindCategory, f.Category)
		if errors.Is(err, ErrNotFound) {
			return []models.Title{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		match["categoryId"] = t.ID
	}
	if f.Genre != "" {
		t, err := db.TermBySlug(ctx, models.KindGenre, f.Genre)
		if errors.Is(err, ErrNotFound) {
			return []models.Title{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		match["genreIds"] = t.ID
	}
	total, err := db.Titles().CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}
	titles, err := db.aggregateTitles(ctx, match, f.Ordering, f.Page)
	if err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// aggregateTitles computes each title's average score and resolves its terms.
// Titles without reviews get a null rating and sort after rated ones in both directions.
func (db *DB) aggregateTitles(ctx context.Context, match bson.M, ordering string, p Page) ([]models.Title, error) {
	sort := bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	switch ordering {
	case OrderRatingAsc, OrderRatingDesc:
		dir := 1
		if ordering == OrderRatingDesc {
			dir = -1
		}
		sort = append(bson.D{{Key: "ratingMissing", Value: 1}, {Key: "rating", Value: dir}}, sort...)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "reviews"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "titleId"},
			{Key: "as", Value: "reviews"},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "rating", Value: bson.D{{Key: "$avg", Value: "$reviews.score"}}}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "ratingMissing", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$rating", nil}}}, 1, 0,
		}}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "reviews", Value: 0}}}},
		{{Key: "$sort", Value: sort}},
	}
	if p.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(p.Offset)}})
	}
	if p.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(p.Limit)}})
	}
	cur, err := db.Titles().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []titleRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	var termIDs []string
	for _, r := range rows {
		if r.CategoryID != nil {
			termIDs = append(termIDs, *r.CategoryID)
		}
		termIDs = append(termIDs, r.GenreIDs...)
	}
	terms, err := db.termsByID(ctx, termIDs)
	if err != nil {
		return nil, err
	}

	titles := make([]models.Title, 0, len(rows))
	for _, r := range rows {
		t := r.Title
		t.Rating = r.Rating
		resolveTerms(&t, terms)
		titles = append(titles, t)
	}
	return titles, nil
}

func resolveTerms(t *models.Title, terms map[string]models.Term) {
	if t.CategoryID != nil {
		if c, ok := terms[*t.CategoryID]; ok {
			t.Category = &c
		}
	}
	t.Genres = make([]models.Term, 0, len(t.GenreIDs))
	for _, id := range t.GenreIDs {
		if g, ok := terms[id]; ok {
			t.Genres = append(t.Genres, g)
		}
	}
}

func (db *DB) UpdateTitle(ctx context.Context, t *models.Title) error {
	if t.GenreIDs == nil {
		t.GenreIDs = []string{}
	}
	set := bson.M{
		"name":        t.Name,
		"year":        t.Year,
		"description": t.Description,
		"categoryId":  t.CategoryID,
		"genreIds":    t.GenreIDs,
	}
	res, err := db.Titles().UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteTitle(ctx context.Context, id string) error {
	reviewIDs, err := db.reviewIDs(ctx, bson.M{"titleId": id})
	if err != nil {
		return err
	}
	if len(reviewIDs) > 0 {
		if _, err := db.Comments().DeleteMany(ctx, bson.M{"reviewId": bson.M{"$in": reviewIDs}}); err != nil {
			return err
		}
		if _, err := db.Reviews().DeleteMany(ctx, bson.M{"titleId": id}); err != nil {
			return err
		}
	}
	res, err := db.Titles().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
