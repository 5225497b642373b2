package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.HistoryDays)
	assert.Equal(t, 7, cfg.FutureDays)
	assert.Equal(t, 0.6, cfg.ActiveProbability)
	assert.Equal(t, 0.8, cfg.PaidProbability)
	assert.Equal(t, 3, cfg.DailyBookings)
	assert.Equal(t, [2]int{1, 4}, [2]int{cfg.MinDailyVisits, cfg.MaxDailyVisits})
	assert.Equal(t, [2]int{9, 19}, [2]int{cfg.OpenHour, cfg.CloseHour})
	assert.Equal(t, [2]int{10, 18}, [2]int{cfg.BookingOpenHour, cfg.BookingCloseHour})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative patients", func(c *Config) { c.Patients = -1 }},
		{"negative history", func(c *Config) { c.HistoryDays = -1 }},
		{"p_active above one", func(c *Config) { c.ActiveProbability = 1.1 }},
		{"p_paid below zero", func(c *Config) { c.PaidProbability = -0.1 }},
		{"empty visit range", func(c *Config) { c.MinDailyVisits, c.MaxDailyVisits = 3, 2 }},
		{"zero min visits", func(c *Config) { c.MinDailyVisits = 0 }},
		{"negative bookings", func(c *Config) { c.DailyBookings = -2 }},
		{"closed clinic", func(c *Config) { c.OpenHour, c.CloseHour = 9, 9 }},
		{"booking past midnight", func(c *Config) { c.BookingCloseHour = 25 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
