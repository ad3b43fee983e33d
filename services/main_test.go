package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/db"
	"github.com/malwarebo/dealhub/ids"
	"github.com/malwarebo/dealhub/lock"
	"github.com/malwarebo/dealhub/stores"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	kv       *cache.RedisCache
	locker   *lock.RedisLock
	client   *cache.Client
	idgen    *ids.Worker
	shops    *stores.ShopStore
	vouchers *stores.VoucherStore
	orders   *stores.OrderStore
	users    *stores.UserStore
}

// newTestEnv wires a hermetic stack: miniredis for everything Redis and a
// shared in-memory sqlite capped at one connection so concurrent transactions
// serialize instead of failing on a locked database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	kv := cache.NewRedisCacheWithClient(rdb)
	locker := lock.NewRedisLock(rdb)
	rebuilds := cache.NewRebuildPool(2, 8)
	t.Cleanup(rebuilds.Close)
	client := cache.NewClient(kv, locker, rebuilds, cache.Options{
		LockRetries: 100,
		LockBackoff: 5 * time.Millisecond,
	})

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.DefaultMigrator(gdb).Up(); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	return &testEnv{
		db:       gdb,
		mr:       mr,
		kv:       kv,
		locker:   locker,
		client:   client,
		idgen:    ids.NewWorker(kv),
		shops:    stores.NewShopStore(gdb),
		vouchers: stores.NewVoucherStore(gdb),
		orders:   stores.NewOrderStore(gdb),
		users:    stores.NewUserStore(gdb),
	}
}
