package stores

import (
	"context"
	"errors"

	"github.com/malwarebo/dealhub/models"
	"gorm.io/gorm"
)

type OrderStore struct {
	BaseStore
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{BaseStore: BaseStore{db: db}}
}

func (s *OrderStore) Create(ctx context.Context, order *models.VoucherOrder) error {
	return s.GetDB(ctx).Create(order).Error
}

func (s *OrderStore) GetByID(ctx context.Context, id int64) (*models.VoucherOrder, error) {
	var order models.VoucherOrder
	if err := s.GetDB(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CountByUserAndVoucher backs the one-order-per-user check inside the
// admission gate.
func (s *OrderStore) CountByUserAndVoucher(ctx context.Context, userID, voucherID int64) (int64, error) {
	var count int64
	err := s.GetDB(ctx).
		Model(&models.VoucherOrder{}).
		Where("user_id = ? AND voucher_id = ?", userID, voucherID).
		Count(&count).Error
	return count, err
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]*models.VoucherOrder, error) {
	var orders []*models.VoucherOrder
	if err := s.GetDB(ctx).Where("user_id = ?", userID).Order("id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
