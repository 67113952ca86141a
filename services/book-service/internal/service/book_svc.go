package service

import (
	"context"

	"github.com/you/library-lending/services/book-service/internal/domain"
	"github.com/you/library-lending/services/book-service/internal/repository"
)

type BookSvc struct {
	repo *repository.BookRepo
}

func NewBookSvc(r *repository.BookRepo) *BookSvc {
	return &BookSvc{repo: r}
}

func (s *BookSvc) Create(ctx context.Context, in domain.Book) (*domain.Book, error) {
	if err := s.repo.Create(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}
func (s *BookSvc) Get(ctx context.Context, id string) (*domain.Book, error) {
	return s.repo.ByID(ctx, id)
}
func (s *BookSvc) List(ctx context.Context, page, size int32, query string) ([]domain.Book, error) {
	return s.repo.List(ctx, page, size, query)
}
func (s *BookSvc) Update(ctx context.Context, id string, fields map[string]any) (*domain.Book, error) {
	return s.repo.Update(ctx, id, fields)
}
func (s *BookSvc) Delete(ctx context.Context, id string) error { return s.repo.Delete(ctx, id) }

// Adjust delegates atomicity to the repository; callers must not pre-check.
func (s *BookSvc) Adjust(ctx context.Context, id string, delta int32) (*domain.Book, error) {
	return s.repo.AdjustCopies(ctx, id, delta)
}
