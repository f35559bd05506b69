package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxPostBodyLen = 2000

// Post is a feed entry. Comments are embedded; likes are a user-ID set with
// a denormalized counter kept in sync by update operators.
type Post struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID     primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Body         string               `bson:"body" json:"body"`
	ImageURL     string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	IsPinned     bool                 `bson:"is_pinned" json:"is_pinned"`
	Likes        []primitive.ObjectID `bson:"likes,omitempty" json:"-"`
	LikeCount    int64                `bson:"like_count" json:"like_count"`
	CommentCount int64                `bson:"comment_count" json:"comment_count"`
	Comments     []Comment            `bson:"comments,omitempty" json:"comments,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`

	Author *PublicUser `bson:"-" json:"author,omitempty"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
