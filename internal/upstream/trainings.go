package upstream

import (
	"context"
	"net/http"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

func (c *Client) Trainings(ctx context.Context) ([]model.Training, error) {
	var trainings []model.Training
	err := c.do(ctx, http.MethodGet, "/trainings", nil, nil, &trainings)
	return trainings, err
}

func (c *Client) Training(ctx context.Context, id string) (model.Training, error) {
	var training model.Training
	err := c.do(ctx, http.MethodGet, "/trainings/"+id, nil, nil, &training)
	return training, err
}

func (c *Client) CreateTraining(ctx context.Context, draft model.TrainingDraft) (model.Training, error) {
	var training model.Training
	err := c.do(ctx, http.MethodPost, "/trainings", nil, draft, &training)
	return training, err
}

func (c *Client) UpdateTraining(ctx context.Context, id string, draft model.TrainingDraft) (model.Training, error) {
	var training model.Training
	err := c.do(ctx, http.MethodPut, "/trainings/"+id, nil, draft, &training)
	return training, err
}

func (c *Client) DeleteTraining(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/trainings/"+id, nil, nil, nil)
}
