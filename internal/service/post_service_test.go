package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dom/blog-backend/internal/auth"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/service"
	"github.com/dom/blog-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvents struct {
	mu      sync.Mutex
	created []uuid.UUID
	updated []uuid.UUID
	deleted []uuid.UUID
}

func (r *recordedEvents) PostCreated(post *domain.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, post.ID)
}

func (r *recordedEvents) PostUpdated(post *domain.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, post.ID)
}

func (r *recordedEvents) PostDeleted(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
}

type postFixture struct {
	svc    *service.PostService
	users  *testutil.MemoryUserRepository
	posts  *testutil.MemoryPostRepository
	events *recordedEvents
	tokens *auth.TokenService
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()

	users := testutil.NewMemoryUserRepository()
	posts := testutil.NewMemoryPostRepository(users)
	events := &recordedEvents{}
	log, _ := testutil.NewTestLogger()

	return &postFixture{
		svc:    service.NewPostService(posts, events, log),
		users:  users,
		posts:  posts,
		events: events,
		tokens: auth.NewTokenService("secret", 0),
	}
}

// author adds a user and returns it with a verified identity.
func (f *postFixture) author(t *testing.T, username string) (*domain.User, auth.Identity) {
	t.Helper()

	user, _ := testutil.NewUserBuilder().WithUsername(username).Model(t)
	f.users.Add(user)
	return user, testutil.IdentityFor(t, f.tokens, user)
}

func strPtr(s string) *string {
	return &s
}

func TestPostService_Create(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	alice, aliceID := f.author(t, "alice")

	tests := []struct {
		name     string
		input    service.CreatePostInput
		identity auth.Identity
		wantErr  error
		check    func(*testing.T, *domain.Post)
	}{
		{
			name:     "successful creation",
			input:    service.CreatePostInput{Title: "T", Content: "C"},
			identity: aliceID,
			check: func(t *testing.T, post *domain.Post) {
				assert.Equal(t, "T", post.Title)
				assert.Equal(t, "C", post.Content)
				assert.Nil(t, post.Image)
				assert.Equal(t, alice.ID, post.AuthorID)
				require.NotNil(t, post.Author)
				assert.Equal(t, "alice", post.Author.Username)
				assert.Equal(t, alice.Email, post.Author.Email)
				assert.False(t, post.CreatedAt.IsZero())
			},
		},
		{
			name:     "title is trimmed and image kept",
			input:    service.CreatePostInput{Title: "  Hello  ", Content: "body", Image: strPtr("https://img.example.com/a.png")},
			identity: aliceID,
			check: func(t *testing.T, post *domain.Post) {
				assert.Equal(t, "Hello", post.Title)
				require.NotNil(t, post.Image)
				assert.Equal(t, "https://img.example.com/a.png", *post.Image)
			},
		},
		{
			name:     "blank image is stored as null",
			input:    service.CreatePostInput{Title: "T", Content: "C", Image: strPtr("")},
			identity: aliceID,
			check: func(t *testing.T, post *domain.Post) {
				assert.Nil(t, post.Image)
			},
		},
		{
			name:     "missing title",
			input:    service.CreatePostInput{Content: "C"},
			identity: aliceID,
			wantErr:  service.ErrTitleContentRequired,
		},
		{
			name:     "blank content",
			input:    service.CreatePostInput{Title: "T", Content: "   "},
			identity: aliceID,
			wantErr:  service.ErrTitleContentRequired,
		},
		{
			name:     "unauthenticated",
			input:    service.CreatePostInput{Title: "T", Content: "C"},
			identity: auth.Identity{},
			wantErr:  service.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := f.svc.Create(ctx, tt.input, tt.identity)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, post)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, post)
			}
		})
	}

	assert.Len(t, f.events.created, 3)
}

func TestPostService_CreateStoreFailure(t *testing.T) {
	f := newPostFixture(t)
	_, aliceID := f.author(t, "alice")
	f.posts.Err = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), service.CreatePostInput{Title: "T", Content: "C"}, aliceID)
	require.Error(t, err)

	var de *domain.Error
	assert.False(t, errors.As(err, &de), "store failures must not look like client errors")
	assert.Empty(t, f.events.created)
}

func TestPostService_GetByID(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	_, aliceID := f.author(t, "alice")

	created, err := f.svc.Create(ctx, service.CreatePostInput{Title: "T", Content: "C"}, aliceID)
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "alice", got.Author.Username)

	_, err = f.svc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrPostNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostService_List(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	alice, _ := f.author(t, "alice")

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		post := &domain.Post{
			ID:        uuid.New(),
			Title:     "post",
			Content:   "content",
			AuthorID:  alice.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.posts.Create(ctx, post))
		ids = append(ids, post.ID)
	}

	t.Run("newest first with authors", func(t *testing.T) {
		page, err := f.svc.List(ctx, service.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, service.DefaultPageLimit, page.Limit)
		require.Len(t, page.Posts, 5)
		for i, post := range page.Posts {
			assert.Equal(t, ids[4-i], post.ID)
			require.NotNil(t, post.Author)
			assert.Equal(t, "alice", post.Author.Username)
		}
	})

	t.Run("bounded page", func(t *testing.T) {
		page, err := f.svc.List(ctx, service.Page{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page.Posts, 2)
		assert.Equal(t, ids[3], page.Posts[0].ID)
		assert.Equal(t, ids[2], page.Posts[1].ID)
		assert.Equal(t, int64(5), page.Total)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, err := f.svc.List(ctx, service.Page{Limit: 10, Offset: 50})
		require.NoError(t, err)
		assert.NotNil(t, page.Posts)
		assert.Empty(t, page.Posts)
	})

	invalid := []service.Page{
		{Limit: -1},
		{Limit: service.MaxPageLimit + 1},
		{Limit: 10, Offset: -1},
	}
	for _, p := range invalid {
		_, err := f.svc.List(ctx, p)
		assert.ErrorIs(t, err, service.ErrInvalidPage)
	}
}

func TestPostService_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.UpdatePostInput
		asOther bool
		missing bool
		wantErr error
		check   func(*testing.T, *domain.Post)
	}{
		{
			name:  "title only keeps content and image",
			input: service.UpdatePostInput{Title: strPtr("new")},
			check: func(t *testing.T, post *domain.Post) {
				assert.Equal(t, "new", post.Title)
				assert.Equal(t, "original content", post.Content)
				require.NotNil(t, post.Image)
				assert.Equal(t, "https://img.example.com/1.png", *post.Image)
			},
		},
		{
			name: "all fields",
			input: service.UpdatePostInput{
				Title:   strPtr("  T2  "),
				Content: strPtr("C2"),
				Image:   strPtr("https://img.example.com/2.png"),
			},
			check: func(t *testing.T, post *domain.Post) {
				assert.Equal(t, "T2", post.Title)
				assert.Equal(t, "C2", post.Content)
				assert.Equal(t, "https://img.example.com/2.png", *post.Image)
			},
		},
		{
			name:  "blank fields are ignored",
			input: service.UpdatePostInput{Title: strPtr(""), Content: strPtr("  "), Image: strPtr("")},
			check: func(t *testing.T, post *domain.Post) {
				assert.Equal(t, "original", post.Title)
				assert.Equal(t, "original content", post.Content)
				assert.Equal(t, "https://img.example.com/1.png", *post.Image)
			},
		},
		{
			name:    "non-author is forbidden",
			input:   service.UpdatePostInput{Title: strPtr("hijacked")},
			asOther: true,
			wantErr: service.ErrNotAllowedToUpdate,
		},
		{
			name:    "non-author with empty payload is still forbidden",
			input:   service.UpdatePostInput{},
			asOther: true,
			wantErr: service.ErrNotAllowedToUpdate,
		},
		{
			name:    "missing post",
			input:   service.UpdatePostInput{Title: strPtr("x")},
			missing: true,
			wantErr: service.ErrPostNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture(t)
			_, aliceID := f.author(t, "alice")
			_, bobID := f.author(t, "bob")

			created, err := f.svc.Create(ctx, service.CreatePostInput{
				Title:   "original",
				Content: "original content",
				Image:   strPtr("https://img.example.com/1.png"),
			}, aliceID)
			require.NoError(t, err)

			id, caller := created.ID, aliceID
			if tt.asOther {
				caller = bobID
			}
			if tt.missing {
				id = uuid.New()
			}

			post, err := f.svc.Update(ctx, id, tt.input, caller)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.events.updated)

				stored, getErr := f.svc.GetByID(ctx, created.ID)
				require.NoError(t, getErr)
				assert.Equal(t, "original", stored.Title)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, created.ID, post.ID)
			require.NotNil(t, post.Author)
			assert.Equal(t, "alice", post.Author.Username)
			assert.Equal(t, []uuid.UUID{created.ID}, f.events.updated)
			if tt.check != nil {
				tt.check(t, post)
			}
		})
	}
}

func TestPostService_Delete(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	_, aliceID := f.author(t, "alice")
	_, bobID := f.author(t, "bob")

	created, err := f.svc.Create(ctx, service.CreatePostInput{Title: "T", Content: "C"}, aliceID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, created.ID, bobID)
	assert.ErrorIs(t, err, service.ErrNotAllowedToDelete)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Delete(ctx, created.ID, auth.Identity{})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	require.NoError(t, f.svc.Delete(ctx, created.ID, aliceID))
	assert.Equal(t, []uuid.UUID{created.ID}, f.events.deleted)

	_, err = f.svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrPostNotFound)

	err = f.svc.Delete(ctx, created.ID, aliceID)
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestPostService_NilPublisher(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	log, _ := testutil.NewTestLogger()
	svc := service.NewPostService(testutil.NewMemoryPostRepository(users), nil, log)

	user, _ := testutil.NewUserBuilder().Model(t)
	users.Add(user)
	identity := testutil.IdentityFor(t, auth.NewTokenService("secret", 0), user)

	_, err := svc.Create(context.Background(), service.CreatePostInput{Title: "T", Content: "C"}, identity)
	assert.NoError(t, err)
}
