package ports

import "context"

// Store keys for the persisted session fields. VerifiedEmail is stored as the
// literal string "true" or "false".
const (
	StoreKeyToken         = "token"
	StoreKeyRole          = "role"
	StoreKeyVerifiedEmail = "verifiedEmail"
	StoreKeyEmail         = "email"
)

// SessionKeys lists every auth-related store key, in write order.
var SessionKeys = []string{StoreKeyToken, StoreKeyRole, StoreKeyVerifiedEmail, StoreKeyEmail}

// DurableStore is the persisted key-value store the session state survives
// process restarts in. MultiSet must be atomic with respect to readers: a
// concurrent Get never observes some keys of a batch written and others not.
type DurableStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	MultiSet(ctx context.Context, pairs map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}
