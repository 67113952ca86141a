package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/library-lending/services/transaction-service/internal/domain"
)

// ErrTerminalStatus is returned for transitions out of a terminal state:
// returning a failed loan, or voiding a returned one.
var ErrTerminalStatus = errors.New("terminal_status")

type TransactionRepo struct{ db *gorm.DB }

func NewTransactionRepo(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}
func (r *TransactionRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Transaction{})
}

func (r *TransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.Status = domain.StatusIssued
	tx.IssuedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepo) ByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// MarkReturned is idempotent: an already-returned row is handed back as-is
// with no second timestamp write, and alreadyReturned tells the caller this
// was a replay so it can skip the inventory credit. The row is locked so two
// concurrent returns cannot both observe status=issued.
func (r *TransactionRepo) MarkReturned(ctx context.Context, id string) (tx *domain.Transaction, alreadyReturned bool, err error) {
	var row domain.Transaction
	err = r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		switch row.Status {
		case domain.StatusReturned:
			alreadyReturned = true
			return nil
		case domain.StatusFailed:
			return ErrTerminalStatus
		}
		now := time.Now().UTC()
		row.Status = domain.StatusReturned
		row.ReturnedAt = &now
		return db.Save(&row).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &row, alreadyReturned, nil
}

// Void moves an issued loan to failed. Voiding an already-failed loan is a
// no-op so a retried compensation succeeds; voiding a returned loan is not.
func (r *TransactionRepo) Void(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&tx, "id = ?", id).Error; err != nil {
			return err
		}
		switch tx.Status {
		case domain.StatusFailed:
			return nil
		case domain.StatusReturned:
			return ErrTerminalStatus
		}
		tx.Status = domain.StatusFailed
		return db.Save(&tx).Error
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepo) List(ctx context.Context, page, size int32, userID, bookID, status string) ([]domain.Transaction, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if userID != "" {
		qb = qb.Where("user_id = ?", userID)
	}
	if bookID != "" {
		qb = qb.Where("book_id = ?", bookID)
	}
	if status != "" {
		qb = qb.Where("status = ?", status)
	}
	var out []domain.Transaction
	if err := qb.Order("issued_at DESC").Limit(int(size)).Offset(int(page * size)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
