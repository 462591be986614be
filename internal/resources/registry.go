// Package resources is the per-entity query/mutation layer. Reads go
// through the shared cache; writes go straight upstream and, on success,
// invalidate exactly the cache keys the mutation logically affects. Writes
// that fail leave the cache untouched.
package resources

import (
	"github.com/sirupsen/logrus"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/upstream"
)

type Registry struct {
	api   *upstream.Client
	cache *cache.Store
	log   *logrus.Logger
}

func NewRegistry(api *upstream.Client, cacheStore *cache.Store, log *logrus.Logger) *Registry {
	return &Registry{api: api, cache: cacheStore, log: log}
}

// Reset drops every cached read. Wired to logout so nothing fetched under
// the old session outlives it.
func (r *Registry) Reset() {
	r.cache.Reset()
}
