package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/blog-backend/internal/api/middleware"
	"github.com/dom/blog-backend/internal/api/response"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BlogHandler struct {
	postService *service.PostService
	log         logrus.FieldLogger
}

func NewBlogHandler(postService *service.PostService, log logrus.FieldLogger) *BlogHandler {
	return &BlogHandler{postService: postService, log: log}
}

type CreatePostRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Image   *string `json:"image"`
}

type PostResponse struct {
	Message string       `json:"message,omitempty"`
	Data    *domain.Post `json:"data"`
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type PostListResponse struct {
	Data       []*domain.Post `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(r)
	if !ok {
		response.ServiceError(w, h.log, "BlogHandler.List", service.ErrInvalidPage)
		return
	}

	result, err := h.postService.List(r.Context(), page)
	if err != nil {
		response.ServiceError(w, h.log, "BlogHandler.List", err)
		return
	}

	response.JSON(w, http.StatusOK, PostListResponse{
		Data: result.Posts,
		Pagination: Pagination{
			Limit:  result.Limit,
			Offset: result.Offset,
			Total:  result.Total,
		},
	})
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		response.ServiceError(w, h.log, "BlogHandler.Get", service.ErrPostNotFound)
		return
	}

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		response.ServiceError(w, h.log, "BlogHandler.Get", err)
		return
	}

	response.JSON(w, http.StatusOK, PostResponse{Data: post})
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	var req CreatePostRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
	}, identity)
	if err != nil {
		response.ServiceError(w, h.log, "BlogHandler.Create", err)
		return
	}

	response.JSON(w, http.StatusCreated, PostResponse{
		Message: "Blog post created",
		Data:    post,
	})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, ok := postID(r)
	if !ok {
		response.ServiceError(w, h.log, "BlogHandler.Update", service.ErrPostNotFound)
		return
	}

	// A missing body is an empty patch, so ownership is still checked.
	var req UpdatePostRequest
	if !response.DecodeOptionalJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Update(r.Context(), id, service.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
	}, identity)
	if err != nil {
		response.ServiceError(w, h.log, "BlogHandler.Update", err)
		return
	}

	response.JSON(w, http.StatusOK, PostResponse{
		Message: "Blog post updated",
		Data:    post,
	})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, ok := postID(r)
	if !ok {
		response.ServiceError(w, h.log, "BlogHandler.Delete", service.ErrPostNotFound)
		return
	}

	if err := h.postService.Delete(r.Context(), id, identity); err != nil {
		response.ServiceError(w, h.log, "BlogHandler.Delete", err)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: "Blog post deleted"})
}

// postID parses the {id} path parameter. A malformed id cannot name an
// existing post.
func postID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func parsePage(r *http.Request) (service.Page, bool) {
	var page service.Page
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, false
		}
		page.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return page, false
		}
		page.Offset = offset
	}
	return page, true
}
