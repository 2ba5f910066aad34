package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock.
type UnlockFunc func(ctx context.Context) error

// SessionLocker serializes intents on one session across replicas of the
// server. Two respondents' tabs, or a retried request landing on another
// replica, must not apply intents to the same snapshot concurrently: the
// second would overwrite the first answer or submit the lead twice.
type SessionLocker interface {
	// Lock waits until sessionID is free or ctx is done. The lock lapses
	// after ttl even if the holder never calls the returned UnlockFunc, so a
	// crashed replica cannot block a respondent forever.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
