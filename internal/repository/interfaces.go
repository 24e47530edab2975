package repository

import (
	"context"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// PostRepository reads return posts with Author preloaded. The *ByAuthor
// writes only touch a row whose author matches and report whether one did.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	Count(ctx context.Context) (int64, error)
	UpdateByAuthor(ctx context.Context, id, authorID uuid.UUID, changes map[string]interface{}) (bool, error)
	DeleteByAuthor(ctx context.Context, id, authorID uuid.UUID) (bool, error)
}

type Repositories struct {
	User UserRepository
	Post PostRepository
}
