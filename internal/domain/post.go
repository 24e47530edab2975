package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title    string    `json:"title" gorm:"not null"`
	Content  string    `json:"content" gorm:"type:text;not null"`
	AuthorID uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	// Author is only populated on reads.
	Author    *User     `json:"author" gorm:"foreignKey:AuthorID"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAuthoredBy reports whether userID owns the post.
func (p *Post) IsAuthoredBy(userID uuid.UUID) bool {
	return p.AuthorID == userID
}
