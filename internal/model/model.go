// Package model holds the domain types exchanged with the conference API.
package model

import "time"

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
)

func ValidRole(role Role) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrganizationType string

const (
	OrganizationCity       OrganizationType = "CITY"
	OrganizationCollegiate OrganizationType = "COLLEGIATE"
)

func ValidOrganizationType(value OrganizationType) bool {
	switch value {
	case OrganizationCity, OrganizationCollegiate:
		return true
	default:
		return false
	}
}

type BanquetSeat struct {
	TableNumber int `json:"tableNumber"`
	SeatNumber  int `json:"seatNumber"`
}

type Delegate struct {
	ID                string           `json:"id"`
	FullName          string           `json:"fullName"`
	LocalOrganization string           `json:"localOrganization"`
	OrganizationType  OrganizationType `json:"organizationType"`
	Email             string           `json:"email"`
	PhoneNumber       string           `json:"phoneNumber"`
	Trainings         []Training       `json:"trainings"`
	BanquetSeat       *BanquetSeat     `json:"banquetSeat,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// DelegateDraft is the writable subset of Delegate used by create and update.
type DelegateDraft struct {
	FullName          string           `json:"fullName"`
	LocalOrganization string           `json:"localOrganization"`
	OrganizationType  OrganizationType `json:"organizationType"`
	Email             string           `json:"email"`
	PhoneNumber       string           `json:"phoneNumber"`
}

type Training struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Trainer  string `json:"trainer"`
	Location string `json:"location"`
	Time     string `json:"time"`
	Date     string `json:"date"`
}

type TrainingDraft struct {
	Name     string `json:"name"`
	Trainer  string `json:"trainer"`
	Location string `json:"location"`
	Time     string `json:"time"`
	Date     string `json:"date"`
}

type BanquetTable struct {
	ID               string `json:"id"`
	TableNumber      int    `json:"tableNumber"`
	MaxCapacity      int    `json:"maxCapacity"`
	CurrentOccupancy int    `json:"currentOccupancy"`
	IsDignitaryTable bool   `json:"isDignitaryTable"`
}

type EventStatus string

const (
	EventActive    EventStatus = "ACTIVE"
	EventInactive  EventStatus = "INACTIVE"
	EventCompleted EventStatus = "COMPLETED"
)

type Event struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Date   string      `json:"date"`
	Status EventStatus `json:"status"`
}

type AttendanceRecord struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type DelegatePage struct {
	Data       []Delegate `json:"data"`
	Pagination Pagination `json:"pagination"`
}
