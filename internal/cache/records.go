// Package cache owns the authoritative local copy of server-side applicant
// records. Every mutation happens only after a confirmed server round-trip.
package cache

import (
	"context"
	"sync"

	"ats-client/internal/common/metrics"
	"ats-client/internal/models"
)

// Lister is the slice of the records service the cache needs.
type Lister interface {
	List(ctx context.Context) ([]models.ApplicantRecord, error)
}

// RecordCache holds the in-memory record list. Writes are serialized so
// programmatic callers cannot lose updates under concurrent completions.
type RecordCache struct {
	lister Lister

	mu      sync.RWMutex
	records []models.ApplicantRecord
	loaded  bool
}

func New(lister Lister) *RecordCache {
	return &RecordCache{lister: lister}
}

// Load replaces the entire cache with the server's current list. On failure
// the previous contents are left untouched.
func (c *RecordCache) Load(ctx context.Context) error {
	records, err := c.lister.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.loaded = true
	c.mu.Unlock()

	metrics.CachedRecords.Set(float64(len(records)))
	return nil
}

// Loaded reports whether an initial Load has succeeded.
func (c *RecordCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Records returns a copy of the cached list in server order.
func (c *RecordCache) Records() []models.ApplicantRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ApplicantRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of cached records.
func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Upsert replaces the record with the same id, or prepends record when it is
// new. Called only after a confirmed create/update response.
func (c *RecordCache) Upsert(record models.ApplicantRecord) {
	c.mu.Lock()
	defer func() {
		count := len(c.records)
		c.mu.Unlock()
		metrics.CachedRecords.Set(float64(count))
	}()

	for i := range c.records {
		if c.records[i].ID == record.ID {
			c.records[i] = record
			return
		}
	}
	// New records go to the head, matching the server's newest-first order.
	c.records = append([]models.ApplicantRecord{record}, c.records...)
}

// Remove deletes the record with the given id, if present. Called only
// after a confirmed delete response.
func (c *RecordCache) Remove(id string) {
	c.mu.Lock()
	defer func() {
		count := len(c.records)
		c.mu.Unlock()
		metrics.CachedRecords.Set(float64(count))
	}()

	for i := range c.records {
		if c.records[i].ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return
		}
	}
}

// Get returns the cached record with the given id.
func (c *RecordCache) Get(id string) (models.ApplicantRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.records {
		if c.records[i].ID == id {
			return c.records[i], true
		}
	}
	return models.ApplicantRecord{}, false
}
