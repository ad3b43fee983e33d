package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/stores"
	"github.com/malwarebo/dealhub/utils"
	"github.com/redis/go-redis/v9"
)

const (
	shopKeyPrefix   = "cache:shop:"
	shopTypeListKey = "cache:shoptype:list"
)

// ShopService serves the shop catalog through the cache-aside layer. Single
// shop reads go through the mutex-guarded strategy so a hot shop whose entry
// just expired is reloaded once, not once per waiting request.
type ShopService struct {
	shops   *stores.ShopStore
	cache   *cache.Client
	kv      *cache.RedisCache
	shopTTL time.Duration
	typeTTL time.Duration
	logger  *utils.Logger
}

func NewShopService(shops *stores.ShopStore, cacheClient *cache.Client, kv *cache.RedisCache, shopTTL, typeTTL time.Duration) *ShopService {
	if shopTTL == 0 {
		shopTTL = 30 * time.Minute
	}
	if typeTTL == 0 {
		typeTTL = 24 * time.Hour
	}
	return &ShopService{
		shops:   shops,
		cache:   cacheClient,
		kv:      kv,
		shopTTL: shopTTL,
		typeTTL: typeTTL,
		logger:  utils.NewLogger("shop-service"),
	}
}

func (s *ShopService) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	if id <= 0 {
		return nil, utils.ErrInvalidRequest
	}

	shop, err := cache.FetchWithMutex(ctx, s.cache, shopKeyPrefix, id, s.shopTTL, s.shops.GetByID)
	if err != nil {
		return nil, utils.WrapError(err, "failed to fetch shop")
	}
	if shop == nil {
		return nil, utils.ErrShopNotFound
	}
	return shop, nil
}

// Update writes the row and drops the cache entry in the same transaction
// scope: a failed invalidation rolls the row update back, so the cache is
// never left pointing at state the next reader would not rebuild. The entry is
// deleted, never rewritten in place.
func (s *ShopService) Update(ctx context.Context, req *models.UpdateShopRequest) (*models.Shop, error) {
	if req == nil || req.ID <= 0 {
		return nil, utils.ErrInvalidRequest
	}

	var updated *models.Shop
	err := s.shops.WithTransaction(ctx, func(txCtx context.Context) error {
		shop, err := s.shops.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if shop == nil {
			return utils.ErrShopNotFound
		}

		if req.Name != "" {
			shop.Name = req.Name
		}
		if req.Area != "" {
			shop.Area = req.Area
		}
		if req.Address != "" {
			shop.Address = req.Address
		}
		if req.AvgPrice != 0 {
			shop.AvgPrice = req.AvgPrice
		}
		if req.OpenHours != "" {
			shop.OpenHours = req.OpenHours
		}

		if err := s.shops.Update(txCtx, shop); err != nil {
			return err
		}
		if err := s.cache.Delete(txCtx, cache.Key(shopKeyPrefix, req.ID)); err != nil {
			return utils.WrapError(err, "failed to invalidate shop cache entry")
		}
		updated = shop
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *ShopService) Create(ctx context.Context, shop *models.Shop) error {
	if shop == nil || shop.Name == "" {
		return utils.ErrInvalidRequest
	}
	return s.shops.Create(ctx, shop)
}

// ListTypes caches the whole type list under one key; the list is tiny and
// changes rarely.
func (s *ShopService) ListTypes(ctx context.Context) ([]models.ShopType, error) {
	payload, err := s.kv.Get(ctx, shopTypeListKey)
	if err == nil {
		var types []models.ShopType
		if uErr := json.Unmarshal([]byte(payload), &types); uErr == nil {
			return types, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	types, err := s.shops.ListTypes(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "failed to list shop types")
	}

	data, err := json.Marshal(types)
	if err != nil {
		return nil, err
	}
	if sErr := s.kv.SetWithTTL(ctx, shopTypeListKey, string(data), s.typeTTL); sErr != nil {
		s.logger.Warn(ctx, "failed to cache shop type list", map[string]interface{}{"error": sErr.Error()})
	}

	return types, nil
}
