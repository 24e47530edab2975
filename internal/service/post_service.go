package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/blog-backend/internal/auth"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var (
	ErrTitleContentRequired = domain.NewError(domain.ErrValidation, "Title and content are required")
	ErrInvalidPage          = domain.NewError(domain.ErrValidation, "limit must be between 1 and 100 and offset must not be negative")
	ErrPostNotFound         = domain.NewError(domain.ErrNotFound, "Blog post not found")
	ErrNotAllowedToUpdate   = domain.NewError(domain.ErrForbidden, "Not authorized to update this post")
	ErrNotAllowedToDelete   = domain.NewError(domain.ErrForbidden, "Not authorized to delete this post")
)

// PostEventPublisher is notified after each successful post write.
type PostEventPublisher interface {
	PostCreated(post *domain.Post)
	PostUpdated(post *domain.Post)
	PostDeleted(id uuid.UUID)
}

type PostService struct {
	postRepo repository.PostRepository
	events   PostEventPublisher
	log      logrus.FieldLogger
}

func NewPostService(postRepo repository.PostRepository, events PostEventPublisher, log logrus.FieldLogger) *PostService {
	if events == nil {
		events = noopPublisher{}
	}
	return &PostService{
		postRepo: postRepo,
		events:   events,
		log:      log,
	}
}

type CreatePostInput struct {
	Title   string
	Content string
	Image   *string
}

// UpdatePostInput is a merge patch: nil or blank fields keep their current value.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Image   *string
}

type Page struct {
	Limit  int
	Offset int
}

type PostPage struct {
	Posts  []*domain.Post
	Total  int64
	Limit  int
	Offset int
}

func (s *PostService) Create(ctx context.Context, input CreatePostInput, identity auth.Identity) (*domain.Post, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrTitleContentRequired
	}

	now := time.Now()
	post := &domain.Post{
		ID:        uuid.New(),
		Title:     title,
		Content:   input.Content,
		AuthorID:  identity.UserID(),
		Image:     nonBlank(input.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"postId": created.ID, "authorId": created.AuthorID}).Info("post created")
	s.events.PostCreated(created)

	return created, nil
}

// List returns one page of posts, newest first. A zero Limit selects DefaultPageLimit.
func (s *PostService) List(ctx context.Context, page Page) (*PostPage, error) {
	if page.Limit == 0 {
		page.Limit = DefaultPageLimit
	}
	if page.Limit < 1 || page.Limit > MaxPageLimit || page.Offset < 0 {
		return nil, ErrInvalidPage
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*domain.Post{}
	}

	return &PostPage{
		Posts:  posts,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput, identity auth.Identity) (*domain.Post, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}

	changes := map[string]interface{}{"updated_at": time.Now()}
	if title := nonBlank(input.Title); title != nil {
		changes["title"] = strings.TrimSpace(*title)
	}
	if content := nonBlank(input.Content); content != nil {
		changes["content"] = *content
	}
	if image := nonBlank(input.Image); image != nil {
		changes["image"] = *image
	}

	updated, err := s.postRepo.UpdateByAuthor(ctx, id, identity.UserID(), changes)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, s.explainMiss(ctx, id, ErrNotAllowedToUpdate)
	}

	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"postId": post.ID, "fields": len(changes) - 1}).Info("post updated")
	s.events.PostUpdated(post)

	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id uuid.UUID, identity auth.Identity) error {
	if identity.IsZero() {
		return ErrUnauthenticated
	}

	deleted, err := s.postRepo.DeleteByAuthor(ctx, id, identity.UserID())
	if err != nil {
		return err
	}
	if !deleted {
		return s.explainMiss(ctx, id, ErrNotAllowedToDelete)
	}

	s.log.WithField("postId", id).Info("post deleted")
	s.events.PostDeleted(id)

	return nil
}

// explainMiss tells apart the two reasons a conditional write can match no
// row: the post is gone, or it belongs to someone else.
func (s *PostService) explainMiss(ctx context.Context, id uuid.UUID, forbidden error) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return forbidden
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

type noopPublisher struct{}

func (noopPublisher) PostCreated(*domain.Post) {}
func (noopPublisher) PostUpdated(*domain.Post) {}
func (noopPublisher) PostDeleted(uuid.UUID)    {}
