package cache

import (
	"encoding/json"
	"time"

	"github.com/coursedeck/catalog-client/pkg/catalog"
)

// TTL is the fixed time-to-live for every cache entry.
const TTL = 5 * time.Minute

// Entry is a cached payload with its storage timestamp. The wire shape
// is JSON {"data": ..., "timestamp": unix-millis}.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"timestamp"`
}

// newEntry wraps payload in an Entry stamped with the current time.
func newEntry(payload interface{}) (*Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Entry{Data: data, StoredAt: time.Now().UnixMilli()}, nil
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(time.UnixMilli(e.StoredAt))
}

// IsExpired returns true if the entry's age has reached the TTL.
func (e *Entry) IsExpired() bool {
	return e.Age() >= TTL
}

// Items decodes the payload as an ordered item sequence.
func (e *Entry) Items() ([]catalog.Item, error) {
	var items []catalog.Item
	if err := json.Unmarshal(e.Data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Item decodes the payload as a single detail record.
func (e *Entry) Item() (catalog.Item, error) {
	var item catalog.Item
	if err := json.Unmarshal(e.Data, &item); err != nil {
		return catalog.Item{}, err
	}
	return item, nil
}
