// Package repeat tracks a player's in-progress repeated quest run. Each
// iteration's outcome and save-data delta are folded into one growing state
// record in the cache, so the client never resends configuration or prior
// results. The state is reachable two ways: by its correlation key, and
// through a per-viewer pointer used when the client does not know the key
// yet.
package repeat

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lucavassos/arcadia/internal/cache"
	"github.com/lucavassos/arcadia/internal/payload"
)

var (
	// ErrInvalidToken means the correlation key resolves to nothing; the
	// run state was lost and the client should start over.
	ErrInvalidToken = errors.New("unknown repeat key")

	// ErrLimitReached is returned instead of accepting an iteration past
	// MaxCount, only when server-side enforcement is enabled.
	ErrLimitReached = errors.New("repeat limit reached")
)

// Policy selects how a run decides to stop.
type Policy string

const (
	// PolicyCount repeats until the configured count is spent.
	PolicyCount Policy = "count"
	// PolicyStamina repeats until the player runs out of stamina.
	PolicyStamina Policy = "stamina"
)

const defaultMaxCount = 99

// State is one viewer's run. It is self-describing: the counter and the
// accumulated totals travel with the record, so re-reading and re-writing it
// is safe to retry even though cache writes are not transactional.
type State struct {
	Token        string         `json:"key"`
	Policy       Policy         `json:"policy"`
	UseItemList  []int32        `json:"use_item_list,omitempty"`
	MaxCount     int32          `json:"max_count"`
	CurrentCount int32          `json:"current_count"`
	Result       payload.Result `json:"result"`
	Updates      payload.Update `json:"updates"`
}

// Service owns the repeat keys in the cache.
type Service struct {
	cache      cache.Cache
	enforceMax bool
}

// NewService wires the accumulator to its cache window. enforceMax turns on
// server-side rejection of iterations past MaxCount; with it off, stopping is
// the client's decision and the accumulator only counts and merges.
func NewService(c cache.Cache, enforceMax bool) *Service {
	return &Service{cache: c, enforceMax: enforceMax}
}

// Configure starts a fresh run with the player's chosen policy, replacing any
// configured-but-unstarted state for this viewer.
func (s *Service) Configure(ctx context.Context, viewerID int64, policy Policy, useItems []int32, maxCount int32) error {
	if policy == "" {
		policy = PolicyCount
	}
	if maxCount <= 0 {
		maxCount = defaultMaxCount
	}
	st := State{
		Token:       uuid.NewString(),
		Policy:      policy,
		UseItemList: useItems,
		MaxCount:    maxCount,
	}
	return s.write(ctx, viewerID, st)
}

// Record accepts one iteration: the counter goes up by exactly one and the
// payloads are merged into the running totals. An empty token means the first
// iteration of a run the client has not learned the key for yet; the run may
// have been configured up front, otherwise one starts with defaults.
func (s *Service) Record(ctx context.Context, viewerID int64, token string, outcome payload.Result, delta payload.Update) (State, error) {
	var st State
	if token != "" {
		ok, err := s.cache.GetJSON(ctx, cache.RepeatStateKey(token), &st)
		if err != nil {
			return State{}, err
		}
		if !ok {
			return State{}, ErrInvalidToken
		}
	} else {
		found, err := s.current(ctx, viewerID, &st)
		if err != nil {
			return State{}, err
		}
		if !found {
			st = State{
				Token:    uuid.NewString(),
				Policy:   PolicyCount,
				MaxCount: defaultMaxCount,
			}
		}
	}

	if s.enforceMax && st.CurrentCount >= st.MaxCount {
		return State{}, ErrLimitReached
	}

	st.CurrentCount++
	st.Result = payload.CombineResults(st.Result, outcome)
	st.Updates = payload.CombineUpdates(st.Updates, delta)

	if err := s.write(ctx, viewerID, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Clear ends the viewer's run, removing both the state record and the
// pointer, and returns the removed state for final bookkeeping. A nil state
// with nil error means there was nothing to clear.
func (s *Service) Clear(ctx context.Context, viewerID int64) (*State, error) {
	var st State
	found, err := s.current(ctx, viewerID, &st)
	if err != nil {
		return nil, err
	}
	if found {
		if err := s.cache.Remove(ctx, cache.RepeatStateKey(st.Token)); err != nil {
			return nil, err
		}
	}
	if err := s.cache.Remove(ctx, cache.RepeatOwnerKey(viewerID)); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &st, nil
}

func (s *Service) current(ctx context.Context, viewerID int64, out *State) (bool, error) {
	token, ok, err := s.cache.GetString(ctx, cache.RepeatOwnerKey(viewerID))
	if err != nil || !ok {
		return false, err
	}
	return s.cache.GetJSON(ctx, cache.RepeatStateKey(token), out)
}

func (s *Service) write(ctx context.Context, viewerID int64, st State) error {
	if err := s.cache.SetString(ctx, cache.RepeatOwnerKey(viewerID), st.Token); err != nil {
		return err
	}
	return s.cache.SetJSON(ctx, cache.RepeatStateKey(st.Token), st)
}
