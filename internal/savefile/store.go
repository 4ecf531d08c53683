package savefile

import (
	"context"
	"strings"
)

// Store is the durable side of the player state: savefiles plus the
// quest-clear party and time-attack records that outlive any session.
type Store interface {
	LookupViewerID(ctx context.Context, accountID string) (int64, error)
	Load(ctx context.Context, accountID string) (Savefile, error)
	Create(ctx context.Context, accountID, name string) (Savefile, error)
	SaveClearParty(ctx context.Context, accountID string, questID int32, isMulti bool, units []ClearPartyUnit) error
	GetClearParty(ctx context.Context, accountID string, questID int32, isMulti bool) ([]ClearPartyUnit, error)
	RecordTimeAttackClear(ctx context.Context, clear TimeAttackClear) error
	Close() error
}

// New creates a postgres-backed store when configured, otherwise in-memory.
func New(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
