package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/model"
)

type UserDao interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// EmailTakenByOther reports whether email belongs to a user other than id.
	EmailTakenByOther(ctx context.Context, email, id string) (bool, error)
	UpdateProfile(ctx context.Context, id, name, email string) (int64, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type userDaoImpl struct{ db *gorm.DB }

func NewUserDao(db *gorm.DB) UserDao { return &userDaoImpl{db: db} }

func (r *userDaoImpl) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userDaoImpl) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id=?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userDaoImpl) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email=?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userDaoImpl) EmailTakenByOther(ctx context.Context, email, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email=? AND id<>?", email, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userDaoImpl) UpdateProfile(ctx context.Context, id, name, email string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id=?", id).
		Updates(map[string]any{"name": name, "email": email})
	return res.RowsAffected, res.Error
}

func (r *userDaoImpl) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id=?", id).
		Update("password", passwordHash).Error
}
