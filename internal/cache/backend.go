package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Backend is a persistent key/value store shared beyond the process. Keys
// arrive already namespaced.
type Backend interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Entry is the stored form of a cached value. StoredAt and TTL are in
// milliseconds; a nil TTL never expires.
type Entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt int64           `json:"timestamp"`
	TTL      *int64          `json:"ttl"`

	// local is the value as given to Set. Entries whose value could not be
	// encoded have only local and live only in the in-process mirror.
	local any
}

// Expired reports whether the entry is past its TTL at now.
func (e Entry) Expired(now time.Time) bool {
	return e.TTL != nil && now.UnixMilli()-e.StoredAt > *e.TTL
}

func (e Entry) remaining(now time.Time) time.Duration {
	if e.TTL == nil {
		return 0
	}
	left := time.Duration(*e.TTL-(now.UnixMilli()-e.StoredAt)) * time.Millisecond
	if left <= 0 {
		return time.Millisecond
	}
	return left
}
