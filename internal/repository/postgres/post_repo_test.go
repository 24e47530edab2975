package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/repository/postgres"
	"github.com/dom/blog-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().WithUsername("author").Build(t, testDB.DB)

	post := &domain.Post{
		ID:        uuid.New(),
		Title:     "Title",
		Content:   "Content",
		AuthorID:  author.ID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Nil(t, got.Image)
	require.NotNil(t, got.Author)
	assert.Equal(t, "author", got.Author.Username)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_ListAndCount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		post := testutil.NewPostBuilder().
			WithAuthor(author).
			WithCreatedAt(base.Add(time.Duration(i) * time.Minute)).
			Build(t, testDB.DB)
		ids = append(ids, post.ID)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []uuid.UUID
	}{
		{name: "all newest first", limit: 10, offset: 0, want: []uuid.UUID{ids[3], ids[2], ids[1], ids[0]}},
		{name: "first page", limit: 2, offset: 0, want: []uuid.UUID{ids[3], ids[2]}},
		{name: "second page", limit: 2, offset: 2, want: []uuid.UUID{ids[1], ids[0]}},
		{name: "past the end", limit: 2, offset: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.List(ctx, tt.limit, tt.offset)
			require.NoError(t, err)

			var got []uuid.UUID
			for _, p := range posts {
				got = append(got, p.ID)
				require.NotNil(t, p.Author)
				assert.Equal(t, author.ID, p.Author.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostRepository_UpdateByAuthor(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	post := testutil.NewPostBuilder().
		WithAuthor(owner).
		WithTitle("before").
		WithContent("body").
		Build(t, testDB.DB)

	t.Run("non-author matches nothing", func(t *testing.T) {
		updated, err := repo.UpdateByAuthor(ctx, post.ID, other.ID, map[string]interface{}{"title": "hijacked"})
		require.NoError(t, err)
		assert.False(t, updated)

		got, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "before", got.Title)
	})

	t.Run("unknown post matches nothing", func(t *testing.T) {
		updated, err := repo.UpdateByAuthor(ctx, uuid.New(), owner.ID, map[string]interface{}{"title": "x"})
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("author updates only the given columns", func(t *testing.T) {
		updated, err := repo.UpdateByAuthor(ctx, post.ID, owner.ID, map[string]interface{}{
			"title": "after",
			"image": "https://img.example.com/new.png",
		})
		require.NoError(t, err)
		assert.True(t, updated)

		got, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Title)
		assert.Equal(t, "body", got.Content)
		require.NotNil(t, got.Image)
		assert.Equal(t, "https://img.example.com/new.png", *got.Image)
	})
}

func TestPostRepository_DeleteByAuthor(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	post := testutil.NewPostBuilder().WithAuthor(owner).Build(t, testDB.DB)

	deleted, err := repo.DeleteByAuthor(ctx, post.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteByAuthor(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	deleted, err = repo.DeleteByAuthor(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	testDB := testutil.NewTestDB(t)

	// NewTestDB already migrated once.
	log, _ := testutil.NewTestLogger()
	require.NoError(t, postgres.Migrate(context.Background(), testDB.DB, log))
}
