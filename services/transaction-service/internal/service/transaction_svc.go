package service

import (
	"context"

	"github.com/you/library-lending/services/transaction-service/internal/domain"
	"github.com/you/library-lending/services/transaction-service/internal/repository"
)

type TransactionSvc struct {
	repo *repository.TransactionRepo
}

func NewTransactionSvc(r *repository.TransactionRepo) *TransactionSvc {
	return &TransactionSvc{repo: r}
}

func (s *TransactionSvc) Create(ctx context.Context, userID, bookID string) (*domain.Transaction, error) {
	tx := &domain.Transaction{UserID: userID, BookID: bookID}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *TransactionSvc) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.ByID(ctx, id)
}

func (s *TransactionSvc) MarkReturned(ctx context.Context, id string) (*domain.Transaction, bool, error) {
	return s.repo.MarkReturned(ctx, id)
}

func (s *TransactionSvc) Void(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.Void(ctx, id)
}

func (s *TransactionSvc) List(ctx context.Context, page, size int32, userID, bookID, status string) ([]domain.Transaction, error) {
	return s.repo.List(ctx, page, size, userID, bookID, status)
}
