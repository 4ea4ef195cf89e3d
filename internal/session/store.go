// Package session keeps login sessions in Redis hashes.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gyma/internal/models"
	"gyma/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL        = time.Hour
	DefaultTrustedTTL = 30 * 24 * time.Hour

	keyPrefix = "session:"

	fieldUserID      = "user_id"
	fieldTrustDevice = "trust_device"
	fieldGymaID      = "gyma_id"
)

// ErrInvalid is returned for unknown, expired or malformed tokens.
var ErrInvalid = models.NewUnauthorizedError("Invalid or expired session").WithReason(models.ReasonSessionInvalid)

// Session is the data stored behind a token. GymaID is zero when no gyma
// is in progress.
type Session struct {
	Key         string
	UserID      uint
	TrustDevice bool
	GymaID      uint
}

// Store reads and writes sessions. It is safe for concurrent use.
type Store struct {
	rdb        *redis.Client
	ttl        time.Duration
	trustedTTL time.Duration
}

// NewStore returns a Store. Non-positive TTLs fall back to the defaults.
func NewStore(rdb *redis.Client, ttl, trustedTTL time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if trustedTTL <= 0 {
		trustedTTL = DefaultTrustedTTL
	}
	return &Store{rdb: rdb, ttl: ttl, trustedTTL: trustedTTL}
}

// EncodeToken turns a session key into the client token.
func EncodeToken(key string) string {
	return base64.StdEncoding.EncodeToString([]byte(key))
}

// DecodeToken accepts the Authorization header value, with or without a
// Bearer prefix, and returns the session key.
func DecodeToken(header string) (string, error) {
	token := strings.TrimSpace(header)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", ErrInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil || len(raw) != 32 {
		return "", ErrInvalid
	}
	key := string(raw)
	for _, r := range key {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", ErrInvalid
		}
	}
	return key, nil
}

func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) expiry(trusted bool) time.Duration {
	if trusted {
		return s.trustedTTL
	}
	return s.ttl
}

// Create stores a new session for userID and returns its client token.
func (s *Store) Create(ctx context.Context, userID uint, trustDevice bool) (string, error) {
	key := newKey()
	trust := "0"
	if trustDevice {
		trust = "1"
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, keyPrefix+key, fieldUserID, strconv.FormatUint(uint64(userID), 10), fieldTrustDevice, trust)
	pipe.Expire(ctx, keyPrefix+key, s.expiry(trustDevice))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", models.NewInternalError(fmt.Errorf("create session: %w", err))
	}
	return EncodeToken(key), nil
}

// Get resolves a token and slides the session expiry.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	sess, err := s.get(ctx, token)
	observability.SessionLookups.WithLabelValues(observability.ResultLabel(err)).Inc()
	return sess, err
}

func (s *Store) get(ctx context.Context, token string) (*Session, error) {
	key, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	fields, err := s.rdb.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("read session: %w", err))
	}
	if len(fields) == 0 {
		return nil, ErrInvalid
	}

	userID, err := strconv.ParseUint(fields[fieldUserID], 10, 64)
	if err != nil || userID == 0 {
		return nil, ErrInvalid
	}
	sess := &Session{
		Key:         key,
		UserID:      uint(userID),
		TrustDevice: fields[fieldTrustDevice] == "1",
	}
	if raw, ok := fields[fieldGymaID]; ok {
		gymaID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, ErrInvalid
		}
		sess.GymaID = uint(gymaID)
	}

	if err := s.rdb.Expire(ctx, keyPrefix+key, s.expiry(sess.TrustDevice)).Err(); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("refresh session: %w", err))
	}
	return sess, nil
}

// UserID returns the user behind token.
func (s *Store) UserID(ctx context.Context, token string) (uint, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return 0, err
	}
	return sess.UserID, nil
}

// SetGymaID records the gyma in progress on the session.
func (s *Store) SetGymaID(ctx context.Context, token string, gymaID uint) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, keyPrefix+sess.Key, fieldGymaID, strconv.FormatUint(uint64(gymaID), 10)).Err(); err != nil {
		return models.NewInternalError(fmt.Errorf("set session gyma: %w", err))
	}
	return nil
}

// ClearGymaID forgets the gyma in progress. A session without one is left as is.
func (s *Store) ClearGymaID(ctx context.Context, token string) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if err := s.rdb.HDel(ctx, keyPrefix+sess.Key, fieldGymaID).Err(); err != nil {
		return models.NewInternalError(fmt.Errorf("clear session gyma: %w", err))
	}
	return nil
}

// Delete ends the session. Deleting an unknown session is an invalid identity.
func (s *Store) Delete(ctx context.Context, token string) error {
	key, err := DecodeToken(token)
	if err != nil {
		return err
	}
	n, err := s.rdb.Del(ctx, keyPrefix+key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.NewInternalError(fmt.Errorf("delete session: %w", err))
	}
	if n == 0 {
		return ErrInvalid
	}
	return nil
}
