package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const selectionKeyPrefix = "orcamento:tenant:"

// SelectionStore keeps the company each user selected, backed by Redis.
type SelectionStore struct {
	client *redis.Client
	ttl    time.Duration
}

type selectionPayload struct {
	CompanyID  int64     `json:"company_id"`
	SelectedAt time.Time `json:"selected_at"`
}

// NewSelectionStore constructs a SelectionStore. A zero ttl keeps selections forever.
func NewSelectionStore(client *redis.Client, ttl time.Duration) *SelectionStore {
	return &SelectionStore{client: client, ttl: ttl}
}

// Get returns the selected company or zero when nothing is stored.
func (s *SelectionStore) Get(ctx context.Context, userID int64) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	var stored selectionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return 0, err
	}
	return stored.CompanyID, nil
}

// Set stores the selection and refreshes its ttl.
func (s *SelectionStore) Set(ctx context.Context, userID, companyID int64) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(selectionPayload{CompanyID: companyID, SelectedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), data, s.ttl).Err()
}

// Clear removes a stored selection.
func (s *SelectionStore) Clear(ctx context.Context, userID int64) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *SelectionStore) key(userID int64) string {
	return selectionKeyPrefix + strconv.FormatInt(userID, 10)
}
