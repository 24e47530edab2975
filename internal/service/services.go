package service

import (
	"time"

	"github.com/dom/blog-backend/internal/auth"
	"github.com/dom/blog-backend/internal/config"
	"github.com/dom/blog-backend/internal/repository"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Tokens *auth.TokenService
	Auth   *AuthService
	Post   *PostService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, events PostEventPublisher, log logrus.FieldLogger) *Services {
	tokens := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)

	return &Services{
		Tokens: tokens,
		Auth:   NewAuthService(repos.User, tokens, log.WithField("component", "auth")),
		Post:   NewPostService(repos.Post, events, log.WithField("component", "post")),
	}
}
