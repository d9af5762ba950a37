package geocoding

import (
	"sync"

	"trojmiasto-monitor/internal/core/domain"
)

type cacheEntry struct {
	location *domain.GeoLocation
	err      error
}

// sessionCache хранит результаты геокодирования по точной строке адреса на
// время жизни процесса. Кешируются и успехи, и окончательные отказы, чтобы
// внешний сервис вызывался не более одного раза на уникальный адрес.
type sessionCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newSessionCache() *sessionCache {
	return &sessionCache{entries: make(map[string]cacheEntry)}
}

func (c *sessionCache) get(address string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[address]
	return entry, ok
}

func (c *sessionCache) put(address string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[address] = entry
}

func (c *sessionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
