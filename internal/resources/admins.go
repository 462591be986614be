package resources

import (
	"context"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// ListAdmins is the cached read behind the admin-management screen. The
// role guard for mutations lives in the session store; listing is only
// reachable through an authenticated gateway route.
func (r *Registry) ListAdmins(ctx context.Context) ([]model.User, error) {
	key := cache.ListKey(cache.ResourceAdmins, "")
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) ([]model.User, error) {
		return r.api.Admins(ctx)
	})
}

// InvalidateAdmins marks the admin listing stale after an admin-account
// mutation, which the session store owns.
func (r *Registry) InvalidateAdmins() {
	r.cache.InvalidateLists(cache.ResourceAdmins)
}
