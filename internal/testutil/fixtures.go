package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/blog-backend/internal/auth"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Model returns the user with a hashed password without persisting it
func (b *UserBuilder) Model(t *testing.T) (*domain.User, string) {
	t.Helper()

	// MinCost keeps the suite fast; production uses DefaultCost.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return user, b.password
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	user, password := b.Model(t)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	Message string `json:"message"`
	User    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// BuildAndAuthenticate registers the user via the API and returns the user and token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:       userID,
		Username: authResp.User.Username,
		Email:    authResp.User.Email,
	}

	return user, authResp.Token
}

// PostBuilder creates test posts with a builder pattern
type PostBuilder struct {
	author    *domain.User
	title     string
	content   string
	image     *string
	createdAt time.Time
}

// NewPostBuilder creates a new PostBuilder with default values
func NewPostBuilder() *PostBuilder {
	return &PostBuilder{
		title:     "Test post",
		content:   "Test content",
		createdAt: time.Now(),
	}
}

// WithAuthor sets the post author
func (b *PostBuilder) WithAuthor(user *domain.User) *PostBuilder {
	b.author = user
	return b
}

// WithTitle sets the title
func (b *PostBuilder) WithTitle(title string) *PostBuilder {
	b.title = title
	return b
}

// WithContent sets the content
func (b *PostBuilder) WithContent(content string) *PostBuilder {
	b.content = content
	return b
}

// WithImage sets the image reference
func (b *PostBuilder) WithImage(image string) *PostBuilder {
	b.image = &image
	return b
}

// WithCreatedAt sets the creation time
func (b *PostBuilder) WithCreatedAt(createdAt time.Time) *PostBuilder {
	b.createdAt = createdAt
	return b
}

// Build creates the post in the database, creating an author if none was set
func (b *PostBuilder) Build(t *testing.T, db *gorm.DB) *domain.Post {
	t.Helper()

	if b.author == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.author = user
	}

	post := &domain.Post{
		ID:        uuid.New(),
		Title:     b.title,
		Content:   b.content,
		AuthorID:  b.author.ID,
		Image:     b.image,
		CreatedAt: b.createdAt,
		UpdatedAt: b.createdAt,
	}

	if err := db.Omit("Author").Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	post.Author = b.author
	return post
}

// PostJSON matches a serialized post
type PostJSON struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
	Author  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostResponse matches the single-post API envelope
type PostResponse struct {
	Message string   `json:"message"`
	Data    PostJSON `json:"data"`
}

// PostListResponse matches the post list API envelope
type PostListResponse struct {
	Data       []PostJSON `json:"data"`
	Pagination struct {
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"pagination"`
}

// IdentityFor issues and verifies a token for user, returning the verified identity
func IdentityFor(t *testing.T, tokens *auth.TokenService, user *domain.User) auth.Identity {
	t.Helper()

	token, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	return identity
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
