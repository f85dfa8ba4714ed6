package domain

import (
	"strconv"
	"strings"
	"time"
)

// GuestUserRef is the sentinel user reference for unauthenticated renters,
// distinct from any real user id.
const GuestUserRef = "guest"

// Rental records one hire of one vehicle. A nil UserID means the renter was
// a guest; guests hold the manage token instead of an account. Rentals are
// never deleted, Active flips exactly once.
type Rental struct {
	ID          int64     `json:"id"`
	VehicleID   int64     `json:"vehicle_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	ManageToken string    `json:"manage_token"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalCost   float64   `json:"total_cost"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRef renders the user reference for summaries and events.
func (r *Rental) UserRef() string {
	if r.UserID == nil {
		return GuestUserRef
	}
	return strconv.FormatInt(*r.UserID, 10)
}

type ReserveRequest struct {
	Plate     string `json:"plate"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	UserEmail string `json:"user_email,omitempty"`
}

func (r *ReserveRequest) Normalize() {
	r.Plate = strings.ToUpper(strings.TrimSpace(r.Plate))
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
	r.UserEmail = strings.ToLower(strings.TrimSpace(r.UserEmail))
}

// RentalSummary is the flat value handed to the invoice formatter and
// returned from a successful reservation.
type RentalSummary struct {
	RentalID    int64   `json:"rental_id"`
	ManageToken string  `json:"manage_token,omitempty"`
	Plate       string  `json:"plate"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Category    string  `json:"category"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Days        int     `json:"days"`
	DailyRate   float64 `json:"daily_rate"`
	TotalCost   float64 `json:"total_cost"`
	UserRef     string  `json:"user_ref"`
	UserEmail   string  `json:"user_email,omitempty"`
}

type RentalDTO struct {
	ID        int64   `json:"id"`
	VehicleID int64   `json:"vehicle_id"`
	UserRef   string  `json:"user_ref"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	TotalCost float64 `json:"total_cost"`
	Active    bool    `json:"active"`
}

func (r *Rental) ToDTO() RentalDTO {
	return RentalDTO{
		ID:        r.ID,
		VehicleID: r.VehicleID,
		UserRef:   r.UserRef(),
		StartDate: r.StartDate.Format(time.DateOnly),
		EndDate:   r.EndDate.Format(time.DateOnly),
		TotalCost: r.TotalCost,
		Active:    r.Active,
	}
}

// ParseRentalDate accepts calendar dates in YYYY-MM-DD form only.
func ParseRentalDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
