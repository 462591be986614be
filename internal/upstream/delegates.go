package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// DelegateFilters narrows delegate listings. Zero values are omitted from
// the query string.
type DelegateFilters struct {
	Page              int
	Limit             int
	Search            string
	LocalOrganization string
}

func (f DelegateFilters) Query() url.Values {
	query := url.Values{}
	if f.Page > 0 {
		query.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.LocalOrganization != "" {
		query.Set("localOrganization", f.LocalOrganization)
	}
	return query
}

// Key is the cache identity for the filter set. The canonical query
// encoding (sorted, escaped) guarantees distinct filters never alias even
// when the search text contains separator characters.
func (f DelegateFilters) Key() string {
	return f.Query().Encode()
}

func (c *Client) Delegates(ctx context.Context, filters DelegateFilters) (model.DelegatePage, error) {
	var page model.DelegatePage
	err := c.do(ctx, http.MethodGet, "/delegates", filters.Query(), nil, &page)
	return page, err
}

func (c *Client) Delegate(ctx context.Context, id string) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodGet, "/delegates/"+id, nil, nil, &delegate)
	return delegate, err
}

// DelegateFromQR resolves the delegate encoded in a scanned badge.
func (c *Client) DelegateFromQR(ctx context.Context, id string) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodGet, "/delegates/qr/"+id, nil, nil, &delegate)
	return delegate, err
}

func (c *Client) CreateDelegate(ctx context.Context, draft model.DelegateDraft) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodPost, "/delegates", nil, draft, &delegate)
	return delegate, err
}

func (c *Client) UpdateDelegate(ctx context.Context, id string, draft model.DelegateDraft) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodPut, "/delegates/"+id, nil, draft, &delegate)
	return delegate, err
}

func (c *Client) DeleteDelegate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/delegates/"+id, nil, nil, nil)
}

type assignTrainingsRequest struct {
	TrainingIDs []string `json:"trainingIds"`
}

func (c *Client) AssignTrainings(ctx context.Context, delegateID string, trainingIDs []string) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodPost, "/delegates/"+delegateID+"/trainings", nil,
		assignTrainingsRequest{TrainingIDs: trainingIDs}, &delegate)
	return delegate, err
}

func (c *Client) DelegateTrainings(ctx context.Context, delegateID string) ([]model.Training, error) {
	var trainings []model.Training
	err := c.do(ctx, http.MethodGet, "/delegates/"+delegateID+"/trainings", nil, nil, &trainings)
	return trainings, err
}

type assignSeatRequest struct {
	TableNumber int `json:"tableNumber"`
	SeatNumber  int `json:"seatNumber"`
}

func (c *Client) AssignBanquetSeating(ctx context.Context, delegateID string, tableNumber, seatNumber int) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodPost, "/delegates/"+delegateID+"/banquet-seating", nil,
		assignSeatRequest{TableNumber: tableNumber, SeatNumber: seatNumber}, &delegate)
	return delegate, err
}
