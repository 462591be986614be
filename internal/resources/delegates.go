package resources

import (
	"context"
	"strings"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
	"github.com/samuelorobosa/jci-conf-client/internal/upstream"
)

func (r *Registry) ListDelegates(ctx context.Context, filters upstream.DelegateFilters) (model.DelegatePage, error) {
	key := cache.ListKey(cache.ResourceDelegates, filters.Key())
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) (model.DelegatePage, error) {
		return r.api.Delegates(ctx, filters)
	})
}

func (r *Registry) GetDelegate(ctx context.Context, id string) (model.Delegate, error) {
	if strings.TrimSpace(id) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	key := cache.IDKey(cache.ResourceDelegates, id)
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) (model.Delegate, error) {
		return r.api.Delegate(ctx, id)
	})
}

func (r *Registry) DelegateTrainings(ctx context.Context, id string) ([]model.Training, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	key := cache.Key{Resource: cache.ResourceDelegates, ID: id, Filter: "trainings"}
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) ([]model.Training, error) {
		return r.api.DelegateTrainings(ctx, id)
	})
}

func validateDelegateDraft(draft model.DelegateDraft) error {
	if strings.TrimSpace(draft.FullName) == "" {
		return fault.Validation("missing_full_name", "full name is required")
	}
	if strings.TrimSpace(draft.LocalOrganization) == "" {
		return fault.Validation("missing_local_organization", "local organization is required")
	}
	if !model.ValidOrganizationType(draft.OrganizationType) {
		return fault.Validation("invalid_organization_type", "organization type must be CITY or COLLEGIATE")
	}
	if !strings.Contains(draft.Email, "@") {
		return fault.Validation("invalid_email", "a valid email is required")
	}
	if strings.TrimSpace(draft.PhoneNumber) == "" {
		return fault.Validation("missing_phone_number", "phone number is required")
	}
	return nil
}

func (r *Registry) CreateDelegate(ctx context.Context, draft model.DelegateDraft) (model.Delegate, error) {
	if err := validateDelegateDraft(draft); err != nil {
		return model.Delegate{}, err
	}
	delegate, err := r.api.CreateDelegate(ctx, draft)
	if err != nil {
		return model.Delegate{}, err
	}
	r.cache.InvalidateLists(cache.ResourceDelegates)
	return delegate, nil
}

func (r *Registry) UpdateDelegate(ctx context.Context, id string, draft model.DelegateDraft) (model.Delegate, error) {
	if strings.TrimSpace(id) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	if err := validateDelegateDraft(draft); err != nil {
		return model.Delegate{}, err
	}
	delegate, err := r.api.UpdateDelegate(ctx, id, draft)
	if err != nil {
		return model.Delegate{}, err
	}
	r.cache.InvalidateLists(cache.ResourceDelegates)
	r.cache.InvalidateID(cache.ResourceDelegates, id)
	return delegate, nil
}

func (r *Registry) DeleteDelegate(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fault.Validation("missing_delegate_id", "delegate id is required")
	}
	if err := r.api.DeleteDelegate(ctx, id); err != nil {
		return err
	}
	r.cache.InvalidateLists(cache.ResourceDelegates)
	r.cache.InvalidateID(cache.ResourceDelegates, id)
	return nil
}

// AssignTrainings replaces a delegate's training set. Only the delegate is
// invalidated: the trainings themselves are unchanged by assignment.
func (r *Registry) AssignTrainings(ctx context.Context, delegateID string, trainingIDs []string) (model.Delegate, error) {
	if strings.TrimSpace(delegateID) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	for _, trainingID := range trainingIDs {
		if strings.TrimSpace(trainingID) == "" {
			return model.Delegate{}, fault.Validation("invalid_training_id", "training ids must be non-empty")
		}
	}
	delegate, err := r.api.AssignTrainings(ctx, delegateID, trainingIDs)
	if err != nil {
		return model.Delegate{}, err
	}
	r.cache.InvalidateLists(cache.ResourceDelegates)
	r.cache.InvalidateID(cache.ResourceDelegates, delegateID)
	return delegate, nil
}

// AssignBanquetSeating seats a delegate. Capacity is enforced upstream (a
// taken seat comes back as a conflict); locally the delegate and the
// banquet occupancy counts become stale.
func (r *Registry) AssignBanquetSeating(ctx context.Context, delegateID string, tableNumber, seatNumber int) (model.Delegate, error) {
	if strings.TrimSpace(delegateID) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	if tableNumber < 1 || seatNumber < 1 {
		return model.Delegate{}, fault.Validation("invalid_seat", "table and seat numbers start at 1")
	}
	delegate, err := r.api.AssignBanquetSeating(ctx, delegateID, tableNumber, seatNumber)
	if err != nil {
		return model.Delegate{}, err
	}
	r.cache.InvalidateLists(cache.ResourceDelegates)
	r.cache.InvalidateID(cache.ResourceDelegates, delegateID)
	r.cache.InvalidateLists(cache.ResourceBanquet)
	return delegate, nil
}
