package models

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID       string    `bson:"_id" json:"id"`
	TitleID  string    `bson:"titleId" json:"-"`
	AuthorID string    `bson:"authorId" json:"-"`
	Author   string    `bson:"-" json:"author"` // username, resolved on read
	Text     string    `bson:"text" json:"text"`
	Score    int       `bson:"score" json:"score"`
	PubDate  time.Time `bson:"pubDate" json:"pub_date"`
}

type Comment struct {
	ID       string    `bson:"_id" json:"id"`
	ReviewID string    `bson:"reviewId" json:"-"`
	AuthorID string    `bson:"authorId" json:"-"`
	Author   string    `bson:"-" json:"author"`
	Text     string    `bson:"text" json:"text"`
	PubDate  time.Time `bson:"pubDate" json:"pub_date"`
}
