package stores

import (
	"context"
	"errors"

	"github.com/malwarebo/dealhub/models"
	"gorm.io/gorm"
)

type ShopStore struct {
	BaseStore
}

func NewShopStore(db *gorm.DB) *ShopStore {
	return &ShopStore{BaseStore: BaseStore{db: db}}
}

// GetByID returns (nil, nil) for a missing row; absence is a result, not an
// error, so the cache layer can record it as a validated miss.
func (s *ShopStore) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	if err := s.GetDB(ctx).First(&shop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

func (s *ShopStore) Create(ctx context.Context, shop *models.Shop) error {
	return s.GetDB(ctx).Create(shop).Error
}

func (s *ShopStore) Update(ctx context.Context, shop *models.Shop) error {
	return s.GetDB(ctx).Save(shop).Error
}

func (s *ShopStore) ListTypes(ctx context.Context) ([]models.ShopType, error) {
	var types []models.ShopType
	if err := s.GetDB(ctx).Order("sort asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
