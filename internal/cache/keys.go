package cache

import "strconv"

// Key is a fully derived cache key. Only the constructors below may build
// one: session and repeat records share the same redis database, and the
// per-family prefixes are what keeps them from colliding.
type Key string

const keyspace = "arcadia"

// SessionTokenKey addresses an unactivated session by its one-shot identity
// token.
func SessionTokenKey(idToken string) Key {
	return Key(keyspace + ":session:id_token:" + idToken)
}

// SessionIDKey addresses an activated session by its session id.
func SessionIDKey(sessionID string) Key {
	return Key(keyspace + ":session:session_id:" + sessionID)
}

// SessionOwnerKey is the pointer from an account to its current session id.
func SessionOwnerKey(accountID string) Key {
	return Key(keyspace + ":session:account_id:" + accountID)
}

// RepeatOwnerKey is the pointer from a viewer to their in-progress repeat
// run's key.
func RepeatOwnerKey(viewerID int64) Key {
	return Key(keyspace + ":repeat:viewer_id:" + strconv.FormatInt(viewerID, 10))
}

// RepeatStateKey addresses the repeat run state by its correlation key.
func RepeatStateKey(token string) Key {
	return Key(keyspace + ":repeat:key:" + token)
}
