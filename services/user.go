package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/stores"
	"github.com/malwarebo/dealhub/utils"
	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix  = "login:code:"
	tokenKeyPrefix = "login:token:"
)

// UserService implements phone-code login with Redis-backed sessions. A
// session is an opaque UUID token mapped to the user's public profile; the
// token TTL slides on every authenticated request.
type UserService struct {
	users    *stores.UserStore
	kv       *cache.RedisCache
	tokenTTL time.Duration
	codeTTL  time.Duration
	logger   *utils.Logger
}

func NewUserService(users *stores.UserStore, kv *cache.RedisCache, tokenTTL, codeTTL time.Duration) *UserService {
	if tokenTTL == 0 {
		tokenTTL = 30 * time.Minute
	}
	if codeTTL == 0 {
		codeTTL = 2 * time.Minute
	}
	return &UserService{
		users:    users,
		kv:       kv,
		tokenTTL: tokenTTL,
		codeTTL:  codeTTL,
		logger:   utils.NewLogger("user-service"),
	}
}

// SendCode issues a short-lived verification code for phone. Delivery is a
// log line; wiring an SMS provider is a deployment concern.
func (s *UserService) SendCode(ctx context.Context, phone string) error {
	if !utils.ValidPhone(phone) {
		return utils.ErrInvalidPhone
	}

	code, err := generateCode()
	if err != nil {
		return utils.WrapError(err, "failed to generate verification code")
	}

	if err := s.kv.SetWithTTL(ctx, codeKeyPrefix+phone, code, s.codeTTL); err != nil {
		return utils.WrapError(err, "failed to store verification code")
	}

	s.logger.Info(ctx, "verification code issued", map[string]interface{}{
		"phone": phone,
		"code":  code,
	})

	return nil
}

// Login verifies the code, creates the user on first login, and returns a
// session token. The code is single-use: it is deleted once consumed.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req == nil || !utils.ValidPhone(req.Phone) {
		return nil, utils.ErrInvalidPhone
	}

	stored, err := s.kv.Get(ctx, codeKeyPrefix+req.Phone)
	if errors.Is(err, redis.Nil) {
		return nil, utils.ErrInvalidCode
	}
	if err != nil {
		return nil, utils.WrapError(err, "failed to read verification code")
	}
	if stored == "" || stored != req.Code {
		return nil, utils.ErrInvalidCode
	}

	user, err := s.users.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, utils.WrapError(err, "failed to look up user")
	}
	if user == nil {
		user = &models.User{
			Phone:    req.Phone,
			Nickname: "user_" + uuid.NewString()[:8],
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, utils.WrapError(err, "failed to create user")
		}
		s.logger.Info(ctx, "user created on first login", map[string]interface{}{"user_id": user.ID})
	}

	session := models.SessionUser{
		ID:       user.ID,
		Nickname: user.Nickname,
		Icon:     user.Icon,
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := s.kv.SetWithTTL(ctx, tokenKeyPrefix+token, string(payload), s.tokenTTL); err != nil {
		return nil, utils.WrapError(err, "failed to store session")
	}

	if dErr := s.kv.Delete(ctx, codeKeyPrefix+req.Phone); dErr != nil {
		s.logger.Warn(ctx, "failed to delete consumed verification code", map[string]interface{}{
			"error": dErr.Error(),
		})
	}

	return &models.LoginResponse{Token: token}, nil
}

// GetSession resolves a token to its session and slides the TTL. A missing or
// expired token returns (nil, nil).
func (s *UserService) GetSession(ctx context.Context, token string) (*models.SessionUser, error) {
	if token == "" {
		return nil, nil
	}

	payload, err := s.kv.Get(ctx, tokenKeyPrefix+token)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapError(err, "failed to read session")
	}

	var session models.SessionUser
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, err
	}

	if eErr := s.kv.Expire(ctx, tokenKeyPrefix+token, s.tokenTTL); eErr != nil {
		s.logger.Warn(ctx, "failed to refresh session ttl", map[string]interface{}{"error": eErr.Error()})
	}

	return &session, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Delete(ctx, tokenKeyPrefix+token)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, utils.ErrInvalidRequest
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, utils.WrapError(err, "failed to load user")
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return user, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
