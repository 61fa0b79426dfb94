package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/redis"
)

// Line is one product entry in a session cart. Only product id and quantity
// are stored; price and name are resolved from the catalog at checkout so a
// stale cart can never fix an old price.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Store reads and mutates the session-scoped cart blob.
type Store interface {
	Lines(ctx context.Context, sessionID string) ([]Line, error)
	SetLine(ctx context.Context, sessionID string, line Line) error
	RemoveLine(ctx context.Context, sessionID string, productID uuid.UUID) error
	Clear(ctx context.Context, sessionID string) error
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

type store struct {
	kv  kv
	ttl time.Duration
}

// NewStore builds a Redis-backed cart store. Each write refreshes the TTL so
// an active cart never expires under the shopper.
func NewStore(client *redis.Client, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		return nil, errors.New("cart ttl must be positive")
	}
	return &store{kv: client, ttl: ttl}, nil
}

func (s *store) Lines(ctx context.Context, sessionID string) ([]Line, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}

	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading cart")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart")
	}
	return lines, nil
}

func (s *store) SetLine(ctx context.Context, sessionID string, line Line) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}
	if line.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	lines, err := s.Lines(ctx, sessionID)
	if err != nil {
		return err
	}

	replaced := false
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity = line.Quantity
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	return s.write(ctx, sessionID, lines)
}

func (s *store) RemoveLine(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}

	lines, err := s.Lines(ctx, sessionID)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return s.Clear(ctx, sessionID)
	}
	return s.write(ctx, sessionID, kept)
}

func (s *store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

func (s *store) write(ctx context.Context, sessionID string, lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart")
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing cart")
	}
	return nil
}
