package upstream

import (
	"context"
	"net/http"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// VerifyDelegate resolves a scanned QR payload at check-in.
func (c *Client) VerifyDelegate(ctx context.Context, delegateID string) (model.Delegate, error) {
	var delegate model.Delegate
	err := c.do(ctx, http.MethodGet, "/qr/verify/"+delegateID, nil, nil, &delegate)
	return delegate, err
}

type recordAttendanceRequest struct {
	DelegateID string `json:"delegateId"`
	EventID    string `json:"eventId"`
}

// RecordAttendance marks a delegate present at an event. Duplicate scans
// come back as a conflict from the backend.
func (c *Client) RecordAttendance(ctx context.Context, delegateID, eventID string) error {
	return c.do(ctx, http.MethodPost, "/qr/attendance", nil,
		recordAttendanceRequest{DelegateID: delegateID, EventID: eventID}, nil)
}

func (c *Client) Attendance(ctx context.Context, delegateID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := c.do(ctx, http.MethodGet, "/qr/attendance/"+delegateID, nil, nil, &records)
	return records, err
}

func (c *Client) Event(ctx context.Context, eventID string) (model.Event, error) {
	var event model.Event
	err := c.do(ctx, http.MethodGet, "/qr/events/"+eventID, nil, nil, &event)
	return event, err
}
