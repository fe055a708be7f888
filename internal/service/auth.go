package service

import (
	"context"
	"time"

	"github.com/mvolkov/tasktracker/internal/logging"
	"github.com/mvolkov/tasktracker/internal/models"
	"github.com/mvolkov/tasktracker/internal/repo"
	"github.com/mvolkov/tasktracker/internal/tokens"
)

type AuthService struct {
	Repo   *repo.Repo
	Tokens *tokens.Service
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user, err := s.Repo.CreateUser(ctx, username, email, password)
	if err != nil {
		l.Warn("register_failed", "error", err)
		return nil, err
	}

	token, exp, err := s.Tokens.Issue(user)
	if err != nil {
		l.Error("token_issue_failed", "error", err)
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.Authenticate(ctx, username, password)
	if err != nil {
		l.Warn("login_failed", "error", err)
		return nil, err
	}

	token, exp, err := s.Tokens.Issue(user)
	if err != nil {
		l.Error("token_issue_failed", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}
