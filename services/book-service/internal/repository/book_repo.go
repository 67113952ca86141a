package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/library-lending/services/book-service/internal/domain"
)

var ErrInsufficientCopies = errors.New("insufficient_copies")

type BookRepo struct{ db *gorm.DB }

func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db: db}
}
func (r *BookRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Book{})
}

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookRepo) ByID(ctx context.Context, id string) (*domain.Book, error) {
	var b domain.Book
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// AdjustCopies applies a signed delta inside a txn with the row locked, so
// concurrent adjusts on the same book serialize and the count never goes
// negative. The check and the write happen under the same lock.
func (r *BookRepo) AdjustCopies(ctx context.Context, id string, delta int32) (*domain.Book, error) {
	var b domain.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		next := b.AvailableCopies + delta
		if next < 0 {
			return ErrInsufficientCopies
		}
		b.AvailableCopies = next
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) Update(ctx context.Context, id string, fields map[string]any) (*domain.Book, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.ByID(ctx, id)
}

func (r *BookRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Book{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BookRepo) List(ctx context.Context, page, size int32, query string) ([]domain.Book, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Book{})
	if query != "" {
		qb = qb.Where("(title ILIKE ? OR author ILIKE ?)", "%"+query+"%", "%"+query+"%")
	}
	var out []domain.Book
	if err := qb.Order("title ASC").Limit(int(size)).Offset(int(page * size)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
