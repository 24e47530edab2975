package postgres

import (
	"context"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Omit("Author").Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Count(&count).Error
	return count, err
}

// UpdateByAuthor applies changes in a single conditional UPDATE so the
// ownership check and the write cannot interleave with another request.
func (r *postRepository) UpdateByAuthor(ctx context.Context, id, authorID uuid.UUID, changes map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) DeleteByAuthor(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&domain.Post{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
