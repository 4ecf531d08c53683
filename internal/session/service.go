// Package session moves a player through the two-stage login handle
// migration. A session record starts out reachable only through the one-shot
// identity token it was prepared with; activation re-keys it under a fresh
// session id and indexes it by account, which is what makes the token useless
// as a long-lived credential. The flow:
//
//  1. The login endpoint calls Prepare with the account id and an identity
//     token. A record is written to the cache keyed by that token.
//  2. The signup flow may resolve the token to a viewer id (LoadByToken);
//     no cache writes happen there.
//  3. The auth endpoint calls Activate, which moves the record from the
//     token key to the session-id key and writes the account pointer. The
//     returned session id is the bearer credential for everything after.
//  4. Subsequent requests validate and resolve the savefile by session id.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lucavassos/arcadia/internal/cache"
	"github.com/lucavassos/arcadia/internal/savefile"
)

// ErrNotFound means no session is reachable by the given key; the caller has
// to re-authenticate.
var ErrNotFound = errors.New("session not found")

// Session is the cached record for one authenticated player.
type Session struct {
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id"`
	ViewerID  int64  `json:"viewer_id"`
}

// Service owns the session keys in the cache. Nothing else reads or writes
// them.
type Service struct {
	cache cache.Cache
	saves savefile.Store
}

func NewService(c cache.Cache, saves savefile.Store) *Service {
	return &Service{cache: c, saves: saves}
}

// Prepare stores an unactivated session keyed by the identity token. Any
// session the account already holds is dropped first; cleanup and creation
// are separate cache writes, so concurrent logins for one account resolve
// last-writer-wins.
func (s *Service) Prepare(ctx context.Context, accountID, idToken string) error {
	oldID, ok, err := s.cache.GetString(ctx, cache.SessionOwnerKey(accountID))
	if err != nil {
		return err
	}
	if ok {
		if err := s.cache.Remove(ctx, cache.SessionIDKey(oldID)); err != nil {
			return err
		}
		if err := s.cache.Remove(ctx, cache.SessionOwnerKey(accountID)); err != nil {
			return err
		}
	}

	viewerID, err := s.saves.LookupViewerID(ctx, accountID)
	if err != nil {
		return err
	}

	sess := Session{
		SessionID: uuid.NewString(),
		AccountID: accountID,
		ViewerID:  viewerID,
	}
	return s.cache.SetJSON(ctx, cache.SessionTokenKey(idToken), sess)
}

// Activate consumes the identity token and returns the session id. After a
// successful call the token key no longer resolves to anything.
func (s *Service) Activate(ctx context.Context, idToken string) (string, error) {
	var sess Session
	ok, err := s.cache.GetJSON(ctx, cache.SessionTokenKey(idToken), &sess)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}

	if err := s.cache.Remove(ctx, cache.SessionTokenKey(idToken)); err != nil {
		return "", err
	}
	if err := s.cache.SetJSON(ctx, cache.SessionIDKey(sess.SessionID), sess); err != nil {
		return "", err
	}
	if err := s.cache.SetString(ctx, cache.SessionOwnerKey(sess.AccountID), sess.SessionID); err != nil {
		return "", err
	}
	return sess.SessionID, nil
}

// Validate reports whether a record is reachable by the session id. The read
// refreshes the sliding TTL; nothing else is mutated.
func (s *Service) Validate(ctx context.Context, sessionID string) (bool, error) {
	var sess Session
	return s.cache.GetJSON(ctx, cache.SessionIDKey(sessionID), &sess)
}

// LoadByID returns the active session for a bearer session id.
func (s *Service) LoadByID(ctx context.Context, sessionID string) (Session, error) {
	return s.load(ctx, cache.SessionIDKey(sessionID))
}

// LoadByToken returns the unactivated session for an identity token. The
// signup flow uses this to report the viewer id before activation.
func (s *Service) LoadByToken(ctx context.Context, idToken string) (Session, error) {
	return s.load(ctx, cache.SessionTokenKey(idToken))
}

// SavefileByID resolves the session id into the durable savefile.
func (s *Service) SavefileByID(ctx context.Context, sessionID string) (savefile.Savefile, error) {
	sess, err := s.LoadByID(ctx, sessionID)
	if err != nil {
		return savefile.Savefile{}, err
	}
	return s.saves.Load(ctx, sess.AccountID)
}

// SavefileByToken resolves the identity token into the durable savefile.
func (s *Service) SavefileByToken(ctx context.Context, idToken string) (savefile.Savefile, error) {
	sess, err := s.LoadByToken(ctx, idToken)
	if err != nil {
		return savefile.Savefile{}, err
	}
	return s.saves.Load(ctx, sess.AccountID)
}

func (s *Service) load(ctx context.Context, key cache.Key) (Session, error) {
	var sess Session
	ok, err := s.cache.GetJSON(ctx, key, &sess)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}
