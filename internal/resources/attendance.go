package resources

import (
	"context"
	"strings"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// VerifyDelegate resolves a scanned QR code. Never served from cache: a
// check-in scan must reflect the backend's current view.
func (r *Registry) VerifyDelegate(ctx context.Context, delegateID string) (model.Delegate, error) {
	if strings.TrimSpace(delegateID) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	return r.api.VerifyDelegate(ctx, delegateID)
}

// DelegateFromQR resolves the delegate encoded in a scanned badge. Like
// VerifyDelegate it bypasses the cache.
func (r *Registry) DelegateFromQR(ctx context.Context, delegateID string) (model.Delegate, error) {
	if strings.TrimSpace(delegateID) == "" {
		return model.Delegate{}, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	return r.api.DelegateFromQR(ctx, delegateID)
}

// RecordAttendance marks a delegate present at an event. De-duplication of
// repeat scans is the backend's job; a duplicate surfaces as a conflict.
func (r *Registry) RecordAttendance(ctx context.Context, delegateID, eventID string) error {
	if strings.TrimSpace(delegateID) == "" {
		return fault.Validation("missing_delegate_id", "delegate id is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return fault.Validation("missing_event_id", "event id is required")
	}
	if err := r.api.RecordAttendance(ctx, delegateID, eventID); err != nil {
		return err
	}
	r.cache.InvalidateID(cache.ResourceAttendance, delegateID)
	return nil
}

func (r *Registry) Attendance(ctx context.Context, delegateID string) ([]model.AttendanceRecord, error) {
	if strings.TrimSpace(delegateID) == "" {
		return nil, fault.Validation("missing_delegate_id", "delegate id is required")
	}
	key := cache.IDKey(cache.ResourceAttendance, delegateID)
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) ([]model.AttendanceRecord, error) {
		return r.api.Attendance(ctx, delegateID)
	})
}

func (r *Registry) Event(ctx context.Context, eventID string) (model.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return model.Event{}, fault.Validation("missing_event_id", "event id is required")
	}
	key := cache.Key{Resource: cache.ResourceAttendance, ID: eventID, Filter: "event"}
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) (model.Event, error) {
		return r.api.Event(ctx, eventID)
	})
}
