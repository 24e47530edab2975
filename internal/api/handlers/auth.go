package handlers

import (
	"net/http"

	"github.com/dom/blog-backend/internal/api/middleware"
	"github.com/dom/blog-backend/internal/api/response"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService *service.AuthService
	log         logrus.FieldLogger
}

func NewAuthHandler(authService *service.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.ServiceError(w, h.log, "AuthHandler.Register", err)
		return
	}

	response.JSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    result.User,
		Token:   result.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.ServiceError(w, h.log, "AuthHandler.Login", err)
		return
	}

	response.JSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    result.User,
		Token:   result.Token,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	user, err := h.authService.GetCurrentUser(r.Context(), identity)
	if err != nil {
		response.ServiceError(w, h.log, "AuthHandler.Me", err)
		return
	}

	response.JSON(w, http.StatusOK, UserResponse{User: user})
}
