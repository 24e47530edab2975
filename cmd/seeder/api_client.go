package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostResponse struct {
	Message string `json:"message"`
	Data    Post   `json:"data"`
}

type PostListResponse struct {
	Data       []Post `json:"data"`
	Pagination struct {
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"pagination"`
}

// Register creates a new account and returns it with its token
func (c *APIClient) Register(username, email, password string) (*User, string, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	var result AuthResponse
	if err := c.do("POST", "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.Token, nil
}

// Login exchanges credentials for a token
func (c *APIClient) Login(email, password string) (*User, string, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result AuthResponse
	if err := c.do("POST", "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	return &result.User, result.Token, nil
}

// CreatePost publishes a post as the token's owner
func (c *APIClient) CreatePost(token, title, content string, image *string) (*Post, error) {
	body := map[string]interface{}{
		"title":   title,
		"content": content,
	}
	if image != nil {
		body["image"] = *image
	}

	var result PostResponse
	if err := c.do("POST", "/blogs", body, token, http.StatusCreated, &result); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &result.Data, nil
}

// ListPosts fetches one page of posts, newest first
func (c *APIClient) ListPosts(limit, offset int) (*PostListResponse, error) {
	path := "/blogs?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)

	var result PostListResponse
	if err := c.do("GET", path, nil, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &result, nil
}

func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
