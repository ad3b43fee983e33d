package stores

import (
	"context"
	"errors"

	"github.com/malwarebo/dealhub/models"
	"gorm.io/gorm"
)

type UserStore struct {
	BaseStore
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{BaseStore: BaseStore{db: db}}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return s.GetDB(ctx).Create(user).Error
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.GetDB(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := s.GetDB(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
