package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/library-lending/services/user-service/internal/domain"
)

var ErrUsernameTaken = errors.New("username_taken")

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}
func (r *UserRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.User{})
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(u).Error
	})
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) (*domain.User, error) {
	if username, ok := fields["username"].(string); ok {
		var count int64
		err := r.db.WithContext(ctx).Model(&domain.User{}).
			Where("username = ? AND id <> ?", username, id).Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrUsernameTaken
		}
	}
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, page, size int32) ([]domain.User, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	var out []domain.User
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Order("created_at DESC").Limit(int(size)).Offset(int(page * size)).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
