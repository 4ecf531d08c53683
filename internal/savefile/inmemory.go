package savefile

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process savefile store for local/dev use.
type InMemoryStore struct {
	mu           sync.RWMutex
	nextViewerID int64
	saves        map[string]Savefile
	parties      map[partyKey][]ClearPartyUnit
	timeAttack   map[timeAttackKey]TimeAttackClear
}

type partyKey struct {
	accountID string
	questID   int32
	isMulti   bool
}

type timeAttackKey struct {
	gameID   string
	viewerID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextViewerID: 1,
		saves:        make(map[string]Savefile),
		parties:      make(map[partyKey][]ClearPartyUnit),
		timeAttack:   make(map[timeAttackKey]TimeAttackClear),
	}
}

func (s *InMemoryStore) LookupViewerID(_ context.Context, accountID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sf, ok := s.saves[accountID]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	return sf.ViewerID, nil
}

func (s *InMemoryStore) Load(_ context.Context, accountID string) (Savefile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sf, ok := s.saves[accountID]
	if !ok {
		return Savefile{}, ErrPlayerNotFound
	}
	return sf, nil
}

func (s *InMemoryStore) Create(_ context.Context, accountID, name string) (Savefile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sf, ok := s.saves[accountID]; ok {
		sf.Name = name
		s.saves[accountID] = sf
		return sf, nil
	}
	sf := Savefile{
		AccountID: accountID,
		ViewerID:  s.nextViewerID,
		Name:      name,
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}
	s.nextViewerID++
	s.saves[accountID] = sf
	return sf, nil
}

func (s *InMemoryStore) SaveClearParty(_ context.Context, accountID string, questID int32, isMulti bool, units []ClearPartyUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]ClearPartyUnit, len(units))
	copy(cp, units)
	s.parties[partyKey{accountID, questID, isMulti}] = cp
	return nil
}

func (s *InMemoryStore) GetClearParty(_ context.Context, accountID string, questID int32, isMulti bool) ([]ClearPartyUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	units := s.parties[partyKey{accountID, questID, isMulti}]
	cp := make([]ClearPartyUnit, len(units))
	copy(cp, units)
	return cp, nil
}

func (s *InMemoryStore) RecordTimeAttackClear(_ context.Context, clear TimeAttackClear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := timeAttackKey{clear.GameID, clear.ViewerID}
	if prev, ok := s.timeAttack[key]; ok && prev.TimeMS <= clear.TimeMS {
		return nil
	}
	s.timeAttack[key] = clear
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

var _ Store = (*InMemoryStore)(nil)
