package domain

import (
	"strings"
	"time"
)

type Vehicle struct {
	ID            int64     `json:"id"`
	Plate         string    `json:"plate"`
	Make          string    `json:"make"`
	Model         string    `json:"model"`
	Category      string    `json:"category"`
	PriceCategory string    `json:"price_category"`
	Year          int       `json:"year"`
	DailyRate     float64   `json:"daily_rate"`
	Mileage       int       `json:"mileage"`
	Color         string    `json:"color"`
	FuelType      string    `json:"fuel_type"`
	Horsepower    int       `json:"horsepower"`
	Seats         int       `json:"seats"`
	Available     bool      `json:"available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateVehicleRequest struct {
	Plate         string  `json:"plate"`
	Make          string  `json:"make"`
	Model         string  `json:"model"`
	Category      string  `json:"category"`
	PriceCategory string  `json:"price_category"`
	Year          int     `json:"year"`
	DailyRate     float64 `json:"daily_rate"`
	Mileage       int     `json:"mileage"`
	Color         string  `json:"color"`
	FuelType      string  `json:"fuel_type"`
	Horsepower    int     `json:"horsepower"`
	Seats         int     `json:"seats"`
}

type UpdateVehicleRequest struct {
	Plate     *string  `json:"plate,omitempty"`
	DailyRate *float64 `json:"daily_rate,omitempty"`
	Mileage   *int     `json:"mileage,omitempty"`
	Color     *string  `json:"color,omitempty"`
}

// VehicleFilter narrows vehicle listings.
type VehicleFilter struct {
	AvailableOnly bool
	Category      string
}

func (r *CreateVehicleRequest) Normalize() {
	r.Plate = strings.ToUpper(strings.TrimSpace(r.Plate))
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
	r.Category = strings.TrimSpace(r.Category)
	r.PriceCategory = strings.TrimSpace(r.PriceCategory)
	r.FuelType = strings.ToLower(strings.TrimSpace(r.FuelType))
	r.Color = strings.TrimSpace(r.Color)
}

func (r *CreateVehicleRequest) Validate() error {
	if r.Plate == "" {
		return Validationf("plate is required")
	}
	if r.Make == "" || r.Model == "" {
		return Validationf("make and model are required")
	}
	if r.DailyRate <= 0 {
		return Validationf("daily rate must be positive")
	}
	if r.Mileage < 0 {
		return Validationf("mileage cannot be negative")
	}
	if r.Horsepower <= 0 {
		return Validationf("horsepower must be positive")
	}
	if r.Seats < 2 {
		return Validationf("seat count must be at least 2")
	}
	if r.Year < 1900 || r.Year > time.Now().Year()+1 {
		return Validationf("implausible model year %d", r.Year)
	}
	return nil
}

func (r *UpdateVehicleRequest) Validate() error {
	if r.Plate != nil && strings.TrimSpace(*r.Plate) == "" {
		return Validationf("plate cannot be blank")
	}
	if r.DailyRate != nil && *r.DailyRate <= 0 {
		return Validationf("daily rate must be positive")
	}
	if r.Mileage != nil && *r.Mileage < 0 {
		return Validationf("mileage cannot be negative")
	}
	return nil
}
