package simulation

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the knobs of a simulation run.
type Config struct {
	Patients          int     `mapstructure:"patients"`
	HistoryDays       int     `mapstructure:"history_days"`
	FutureDays        int     `mapstructure:"future_days"`
	ActiveProbability float64 `mapstructure:"p_active"`
	PaidProbability   float64 `mapstructure:"p_paid"`
	MinDailyVisits    int     `mapstructure:"min_daily_visits"`
	MaxDailyVisits    int     `mapstructure:"max_daily_visits"`
	DailyBookings     int     `mapstructure:"daily_bookings"`
	// Visits start on the hour in [OpenHour, CloseHour).
	OpenHour        int `mapstructure:"open_hour"`
	CloseHour       int `mapstructure:"close_hour"`
	BookingOpenHour int `mapstructure:"booking_open_hour"`
	// BookingCloseHour is exclusive, like CloseHour.
	BookingCloseHour int `mapstructure:"booking_close_hour"`
}

// DefaultConfig returns the clinic's usual traffic profile.
func DefaultConfig() Config {
	return Config{
		Patients:          30,
		HistoryDays:       60,
		FutureDays:        7,
		ActiveProbability: 0.6,
		PaidProbability:   0.8,
		MinDailyVisits:    1,
		MaxDailyVisits:    4,
		DailyBookings:     3,
		OpenHour:          9,
		CloseHour:         19,
		BookingOpenHour:   10,
		BookingCloseHour:  18,
	}
}

// Validate checks ranges. It does not touch the database.
func (c Config) Validate() error {
	switch {
	case c.Patients < 0:
		return fmt.Errorf("%w: patients must not be negative", ErrInvalidConfig)
	case c.HistoryDays < 0 || c.FutureDays < 0:
		return fmt.Errorf("%w: day windows must not be negative", ErrInvalidConfig)
	case c.ActiveProbability < 0 || c.ActiveProbability > 1:
		return fmt.Errorf("%w: p_active %v outside [0,1]", ErrInvalidConfig, c.ActiveProbability)
	case c.PaidProbability < 0 || c.PaidProbability > 1:
		return fmt.Errorf("%w: p_paid %v outside [0,1]", ErrInvalidConfig, c.PaidProbability)
	case c.MinDailyVisits < 1 || c.MaxDailyVisits < c.MinDailyVisits:
		return fmt.Errorf("%w: daily visits range [%d,%d]", ErrInvalidConfig, c.MinDailyVisits, c.MaxDailyVisits)
	case c.DailyBookings < 0:
		return fmt.Errorf("%w: daily bookings must not be negative", ErrInvalidConfig)
	case !validHours(c.OpenHour, c.CloseHour):
		return fmt.Errorf("%w: visit hours [%d,%d)", ErrInvalidConfig, c.OpenHour, c.CloseHour)
	case !validHours(c.BookingOpenHour, c.BookingCloseHour):
		return fmt.Errorf("%w: booking hours [%d,%d)", ErrInvalidConfig, c.BookingOpenHour, c.BookingCloseHour)
	}
	return nil
}

func validHours(from, to int) bool {
	return from >= 0 && to <= 24 && from < to
}
