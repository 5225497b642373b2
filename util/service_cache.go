package util

import (
	"sync/atomic"
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	cache "github.com/patrickmn/go-cache"
)

// ServiceCache keeps catalog lookups in memory. The catalog is immutable once
// seeded, so entries only expire to bound memory. A nil *ServiceCache is valid
// and never hits.
type ServiceCache struct {
	c      *cache.Cache
	hits   int64
	misses int64
}

var serviceCache *ServiceCache

// NewServiceCache builds a cache whose entries live for ttl.
// If ttl <= 0, a default of 1h is used.
func NewServiceCache(ttl time.Duration) *ServiceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ServiceCache{c: cache.New(ttl, 2*ttl)}
}

// InitServiceCache initializes the process wide catalog cache.
func InitServiceCache(ttl time.Duration) {
	serviceCache = NewServiceCache(ttl)
}

// GetServiceCache returns the process wide catalog cache (may be nil).
func GetServiceCache() *ServiceCache {
	return serviceCache
}

func serviceKey(category, treatment string) string {
	return category + "\x00" + treatment
}

// Get returns the cached service for (category, treatment).
func (s *ServiceCache) Get(category, treatment string) (model.Service, bool) {
	if s == nil {
		return model.Service{}, false
	}
	if v, ok := s.c.Get(serviceKey(category, treatment)); ok {
		if svc, ok := v.(model.Service); ok {
			atomic.AddInt64(&s.hits, 1)
			return svc, true
		}
	}
	atomic.AddInt64(&s.misses, 1)
	return model.Service{}, false
}

// Set stores svc under its (category, treatment) key.
func (s *ServiceCache) Set(svc model.Service) {
	if s == nil {
		return
	}
	s.c.SetDefault(serviceKey(svc.Category, svc.TreatmentName), svc)
}

// Flush drops every cached service.
func (s *ServiceCache) Flush() {
	if s == nil {
		return
	}
	s.c.Flush()
}

// Stats returns hit and miss counters.
func (s *ServiceCache) Stats() (hits, misses int64) {
	if s == nil {
		return 0, 0
	}
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}
