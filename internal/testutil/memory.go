package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryUserRepository is an in-memory repository.UserRepository. It reports
// the same gorm errors as the postgres implementation.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return false, r.Err
	}
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Add stores user directly, bypassing uniqueness checks.
func (r *MemoryUserRepository) Add(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
}

// MemoryPostRepository is an in-memory repository.PostRepository that
// resolves authors from a MemoryUserRepository.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*domain.Post
	seq   map[uuid.UUID]int
	next  int
	users *MemoryUserRepository
	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryPostRepository(users *MemoryUserRepository) *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[uuid.UUID]*domain.Post),
		seq:   make(map[uuid.UUID]int),
		users: users,
	}
}

func (r *MemoryPostRepository) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	clone := *post
	clone.Author = nil
	r.posts[post.ID] = &clone
	r.next++
	r.seq[post.ID] = r.next
	return nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withAuthor(ctx, p), nil
}

// List orders newest first, breaking ties by insertion order.
func (r *MemoryPostRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	all := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return r.seq[all[i].ID] > r.seq[all[j].ID]
	})

	if offset >= len(all) {
		return []*domain.Post{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	out := make([]*domain.Post, 0, end-offset)
	for _, p := range all[offset:end] {
		out = append(out, r.withAuthor(ctx, p))
	}
	return out, nil
}

func (r *MemoryPostRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return 0, r.Err
	}
	return int64(len(r.posts)), nil
}

func (r *MemoryPostRepository) UpdateByAuthor(_ context.Context, id, authorID uuid.UUID, changes map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return false, r.Err
	}
	p, ok := r.posts[id]
	if !ok || !p.IsAuthoredBy(authorID) {
		return false, nil
	}

	for column, value := range changes {
		switch column {
		case "title":
			p.Title = value.(string)
		case "content":
			p.Content = value.(string)
		case "image":
			image := value.(string)
			p.Image = &image
		case "updated_at":
			p.UpdatedAt = value.(time.Time)
		}
	}
	return true, nil
}

func (r *MemoryPostRepository) DeleteByAuthor(_ context.Context, id, authorID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return false, r.Err
	}
	p, ok := r.posts[id]
	if !ok || !p.IsAuthoredBy(authorID) {
		return false, nil
	}
	delete(r.posts, id)
	delete(r.seq, id)
	return true, nil
}

func (r *MemoryPostRepository) withAuthor(ctx context.Context, p *domain.Post) *domain.Post {
	clone := *p
	if author, err := r.users.GetByID(ctx, p.AuthorID); err == nil {
		clone.Author = author
	}
	return &clone
}
