package models

// TermKind distinguishes the two classifications a Title can carry.
type TermKind string

const (
	KindCategory TermKind = "category"
	KindGenre    TermKind = "genre"
)

const (
	TermNameMaxLength = 256
	SlugMaxLength     = 50
)

// Term is a named, slugged classification. Categories and genres share this shape.
type Term struct {
	ID   string   `bson:"_id" json:"-"`
	Kind TermKind `bson:"kind" json:"-"`
	Name string   `bson:"name" json:"name"`
	Slug string   `bson:"slug" json:"slug"`
}
