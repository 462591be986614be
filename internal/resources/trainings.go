package resources

import (
	"context"
	"strings"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

func (r *Registry) ListTrainings(ctx context.Context) ([]model.Training, error) {
	key := cache.ListKey(cache.ResourceTrainings, "")
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) ([]model.Training, error) {
		return r.api.Trainings(ctx)
	})
}

func (r *Registry) GetTraining(ctx context.Context, id string) (model.Training, error) {
	if strings.TrimSpace(id) == "" {
		return model.Training{}, fault.Validation("missing_training_id", "training id is required")
	}
	key := cache.IDKey(cache.ResourceTrainings, id)
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) (model.Training, error) {
		return r.api.Training(ctx, id)
	})
}

func validateTrainingDraft(draft model.TrainingDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return fault.Validation("missing_name", "training name is required")
	}
	if strings.TrimSpace(draft.Trainer) == "" {
		return fault.Validation("missing_trainer", "trainer is required")
	}
	if strings.TrimSpace(draft.Location) == "" {
		return fault.Validation("missing_location", "location is required")
	}
	if strings.TrimSpace(draft.Time) == "" {
		return fault.Validation("missing_time", "time is required")
	}
	if strings.TrimSpace(draft.Date) == "" {
		return fault.Validation("missing_date", "date is required")
	}
	return nil
}

func (r *Registry) CreateTraining(ctx context.Context, draft model.TrainingDraft) (model.Training, error) {
	if err := validateTrainingDraft(draft); err != nil {
		return model.Training{}, err
	}
	training, err := r.api.CreateTraining(ctx, draft)
	if err != nil {
		return model.Training{}, err
	}
	r.cache.InvalidateLists(cache.ResourceTrainings)
	return training, nil
}

func (r *Registry) UpdateTraining(ctx context.Context, id string, draft model.TrainingDraft) (model.Training, error) {
	if strings.TrimSpace(id) == "" {
		return model.Training{}, fault.Validation("missing_training_id", "training id is required")
	}
	if err := validateTrainingDraft(draft); err != nil {
		return model.Training{}, err
	}
	training, err := r.api.UpdateTraining(ctx, id, draft)
	if err != nil {
		return model.Training{}, err
	}
	r.cache.InvalidateLists(cache.ResourceTrainings)
	r.cache.InvalidateID(cache.ResourceTrainings, id)
	return training, nil
}

func (r *Registry) DeleteTraining(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fault.Validation("missing_training_id", "training id is required")
	}
	if err := r.api.DeleteTraining(ctx, id); err != nil {
		return err
	}
	r.cache.InvalidateLists(cache.ResourceTrainings)
	r.cache.InvalidateID(cache.ResourceTrainings, id)
	return nil
}
