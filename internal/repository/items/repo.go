// Package items reads candidate content records. The ranking core does
// not own persistence: this repository is read-only except for the
// analysis records the analyzer writes back.
package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

const (
	itemKeyPrefix    = "rankdex:item:"
	signalsKeyPrefix = "rankdex:itemsig:"
)

// placeholderTitles are test/placeholder records excluded from ranking.
var placeholderTitles = map[string]struct{}{
	"":         {},
	"test":     {},
	"untitled": {},
	"new item": {},
}

// store is the consumer interface for item reads (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo fetches candidate items and their stored analysis records.
type Repo struct {
	store store
}

// New creates an item repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// List returns the user's candidate items at or above minQuality,
// excluding placeholder titles. Store unavailability wraps
// domain.ErrNoCandidateStore, the one hard failure of a ranking
// request.
func (r *Repo) List(ctx context.Context, userID string, minQuality float64) ([]domain.CandidateItem, error) {
	keys, err := r.store.Scan(ctx, itemKeyPrefix+userID+":*")
	if err != nil {
		return nil, fmt.Errorf("scan items for %s: %v: %w", userID, err, domain.ErrNoCandidateStore)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch items for %s: %v: %w", userID, err, domain.ErrNoCandidateStore)
	}

	items := make([]domain.CandidateItem, 0, len(hashes))
	for i, fields := range hashes {
		item, err := itemFromHash(fields)
		if err != nil {
			// A single corrupt record must not sink the candidate set.
			continue
		}
		if item.ID == "" {
			item.ID = strings.TrimPrefix(keys[i], itemKeyPrefix+userID+":")
		}
		if item.Quality < minQuality {
			continue
		}
		if _, placeholder := placeholderTitles[strings.ToLower(strings.TrimSpace(item.Title))]; placeholder {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// StoredSignals returns the persisted analysis record for an item, if
// one exists.
func (r *Repo) StoredSignals(ctx context.Context, itemID string) (domain.ItemSignals, bool, error) {
	data, err := r.store.Get(ctx, signalsKeyPrefix+itemID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ItemSignals{}, false, nil
		}
		return domain.ItemSignals{}, false, fmt.Errorf("get stored signals %s: %w", itemID, err)
	}

	var sig domain.ItemSignals
	if err := json.Unmarshal(data, &sig); err != nil {
		return domain.ItemSignals{}, false, fmt.Errorf("decode stored signals %s: %w", itemID, err)
	}
	sig.ItemID = itemID
	return sig, true, nil
}
