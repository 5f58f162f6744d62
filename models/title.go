package models

type Title struct {
	ID          string   `bson:"_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Year        int      `bson:"year" json:"year"`
	Description *string  `bson:"description" json:"description"`
	CategoryID  *string  `bson:"categoryId" json:"-"`
	GenreIDs    []string `bson:"genreIds" json:"-"`

	// Resolved on read.
	Category *Term    `bson:"-" json:"category"`
	Genres   []Term   `bson:"-" json:"genre"`
	Rating   *float64 `bson:"-" json:"-"` // average review score, nil without reviews
}
