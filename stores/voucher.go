package stores

import (
	"context"
	"errors"

	"github.com/malwarebo/dealhub/models"
	"gorm.io/gorm"
)

type VoucherStore struct {
	BaseStore
}

func NewVoucherStore(db *gorm.DB) *VoucherStore {
	return &VoucherStore{BaseStore: BaseStore{db: db}}
}

func (s *VoucherStore) Create(ctx context.Context, voucher *models.Voucher) error {
	return s.GetDB(ctx).Create(voucher).Error
}

func (s *VoucherStore) CreateSeckill(ctx context.Context, seckill *models.SeckillVoucher) error {
	return s.GetDB(ctx).Create(seckill).Error
}

func (s *VoucherStore) GetByID(ctx context.Context, id int64) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := s.GetDB(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

func (s *VoucherStore) GetSeckillByID(ctx context.Context, voucherID int64) (*models.SeckillVoucher, error) {
	var seckill models.SeckillVoucher
	if err := s.GetDB(ctx).First(&seckill, "voucher_id = ?", voucherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seckill, nil
}

// DecrementStock is the authoritative oversell guard: an atomic conditional
// update that only succeeds while stock is positive. It returns the number of
// affected rows; zero means the stock was already exhausted, no matter what
// any earlier pre-check observed.
func (s *VoucherStore) DecrementStock(ctx context.Context, voucherID int64) (int64, error) {
	result := s.GetDB(ctx).
		Model(&models.SeckillVoucher{}).
		Where("voucher_id = ? AND stock > 0", voucherID).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	return result.RowsAffected, result.Error
}
