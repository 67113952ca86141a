package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/you/library-lending/pkg/auth"
	"github.com/you/library-lending/services/user-service/internal/domain"
	"github.com/you/library-lending/services/user-service/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

type UserSvc struct {
	repo     *repository.UserRepo
	tokenTTL time.Duration
}

func NewUserSvc(r *repository.UserRepo, tokenTTL time.Duration) *UserSvc {
	return &UserSvc{repo: r, tokenTTL: tokenTTL}
}

func (s *UserSvc) Register(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: username, PasswordHash: string(hash)}
	return u, s.repo.Create(ctx, u)
}

func (s *UserSvc) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	u, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	access, err := auth.CreateAccessToken(u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

func (s *UserSvc) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.ByID(ctx, id)
}

func (s *UserSvc) Update(ctx context.Context, id, username, password string) (*domain.User, error) {
	fields := map[string]any{}
	if username != "" {
		fields["username"] = username
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = string(hash)
	}
	if len(fields) == 0 {
		return s.repo.ByID(ctx, id)
	}
	return s.repo.UpdateFields(ctx, id, fields)
}

func (s *UserSvc) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserSvc) List(ctx context.Context, page, size int32) ([]domain.User, error) {
	return s.repo.List(ctx, page, size)
}
