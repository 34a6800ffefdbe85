package cache

import (
	"fmt"
	"time"

	"github.com/ppiankov/pricecmp/internal/model"
)

// Cache holds parsed catalog snapshots
type Cache interface {
	Get(key string) ([]model.PriceRecord, bool)
	Set(key string, records []model.PriceRecord, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Key identifies one on-disk version of a catalog file. A rewritten file
// gets a new key, so stale snapshots are never served.
func Key(path string, modTime time.Time, size int64) string {
	return fmt.Sprintf("pricecmp:v1:%s:%d:%d", path, modTime.UnixNano(), size)
}
