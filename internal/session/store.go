// Package session хранит записи checkout-сессий между initiate и finalize.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/stream-checkout/internal/models"
)

const (
	keyPrefix  = "checkout_session:"
	lockPrefix = "checkout_lock:"
)

// Cache методы кеша, которые нужны хранилищу сессий.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key string, value any) (bool, error)
}

// Store хранилище сессий с ограниченным временем жизни.
type Store struct {
	cache Cache
	ttl   time.Duration
}

// NewStore создаёт хранилище, в котором каждая запись живёт ttl.
func NewStore(cache Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Save записывает сессию, время жизни отсчитывается заново.
func (s *Store) Save(ctx context.Context, sess models.CheckoutSession) error {
	const op = "session.Save"
	if sess.SessionID == "" {
		return fmt.Errorf("%s: empty session id", op)
	}
	if err := s.cache.Set(ctx, key(sess.SessionID), sess, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает сессию. found=false, если её нет или истёк срок хранения.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.CheckoutSession, bool, error) {
	const op = "session.Get"
	var sess models.CheckoutSession
	found, err := s.cache.Get(ctx, key(sessionID), &sess)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}
	return &sess, true, nil
}

// Lock захватывает сессию на время finalize и возвращает метку владельца.
// ok=false, если сессия уже захвачена. Блокировка снимается через Unlock
// с той же меткой или сама по истечении ttl.
func (s *Store) Lock(ctx context.Context, sessionID string, ttl time.Duration) (owner string, ok bool, err error) {
	const op = "session.Lock"
	owner = uuid.NewString()
	ok, err = s.cache.SetNX(ctx, lockPrefix+sessionID, owner, ttl)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", false, nil
	}
	return owner, true, nil
}

// Unlock снимает блокировку, только если она всё ещё принадлежит owner.
// released=false, если блокировка истекла и, возможно, захвачена другим вызовом.
func (s *Store) Unlock(ctx context.Context, sessionID, owner string) (released bool, err error) {
	const op = "session.Unlock"
	released, err = s.cache.CompareAndDelete(ctx, lockPrefix+sessionID, owner)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return released, nil
}
