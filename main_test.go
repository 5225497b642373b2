package main

import (
	"bytes"
	"testing"

	"github.com/ariebrainware/dental-ledger/config"
	"github.com/ariebrainware/dental-ledger/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envConfig() *config.Config {
	return &config.Config{
		SimPatients:      30,
		SimHistoryDays:   60,
		SimFutureDays:    7,
		SimActiveProb:    0.6,
		SimPaidProb:      0.8,
		SimDailyBookings: 3,
	}
}

func boundCommand(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := viper.New()
	cmd := &cobra.Command{Use: "simulate", RunE: func(*cobra.Command, []string) error { return nil }}
	bindSimulationFlags(cmd, v, envConfig())
	require.NoError(t, cmd.ParseFlags(args))
	return v
}

func TestSimulationConfigFrom_Defaults(t *testing.T) {
	cfg, seed, err := simulationConfigFrom(boundCommand(t))
	require.NoError(t, err)
	assert.Equal(t, simulation.DefaultConfig(), cfg)
	assert.Zero(t, seed)
}

func TestSimulationConfigFrom_Flags(t *testing.T) {
	cfg, seed, err := simulationConfigFrom(boundCommand(t, "--patients=12", "--history-days=5", "--p-active=1", "--seed=42"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Patients)
	assert.Equal(t, 5, cfg.HistoryDays)
	assert.Equal(t, 1.0, cfg.ActiveProbability)
	assert.Equal(t, 0.8, cfg.PaidProbability)
	assert.Equal(t, 4, cfg.MaxDailyVisits)
	assert.Equal(t, uint64(42), seed)
}

func TestSimulationConfigFrom_Invalid(t *testing.T) {
	_, _, err := simulationConfigFrom(boundCommand(t, "--p-paid=2"))
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWTSECRET", "cli-secret")

	cmd := tokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--operator", "caja"})
	require.NoError(t, cmd.Execute())
	assert.Regexp(t, `^[\w-]+\.[\w-]+\.[\w-]+\n$`, out.String())
}
