package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/dental-ledger/config"
	"github.com/ariebrainware/dental-ledger/endpoint"
	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/middleware"
	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/simulation"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	_ "time/tzdata"
)

const simulationLockKey = "dental-ledger:simulation"

func main() {
	rootCmd := &cobra.Command{
		Use:           "dental-ledger",
		Short:         "Dental clinic ledger, agenda and history simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore connects, migrates and returns the database with a close func.
func openStore() (*gorm.DB, func(), error) {
	db, err := config.ConnectDB()
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closeDB := func() {
		if err := config.CloseDB(db); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	if err := db.AutoMigrate(model.Models()...); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, closeDB, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the operator HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			util.InitLogger(cfg.AppName, cfg.AppEnv)
			util.SetJWTSecret(os.Getenv("JWTSECRET"))

			db, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			if _, err := ledger.NewCatalog(db).EnsureSeeded(cmd.Context(), ledger.DefaultServices()); err != nil {
				return err
			}

			if _, err := config.ConnectRedis(); err != nil {
				log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			}
			util.InitServiceCache(time.Hour)
			warmed, err := ledger.NewCatalog(db, ledger.WithServiceCache(util.GetServiceCache())).Warm(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("services", warmed).Msg("service cache warmed")
			util.SetAuditLoggerDB(db)
			endpoint.SetLocation(cfg.Location())

			gin.SetMode(cfg.GinMode)
			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(middleware.CORSMiddleware())
			router.Use(middleware.DatabaseMiddleware(db))
			router.Use(middleware.EndpointCallLogger())

			router.GET("/", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
				})
			})
			endpoint.RegisterRoutes(router, middleware.RateLimiter(middleware.RateLimitConfig{}))

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.AppPort),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				log.Info().Str("addr", srv.Addr).Msg("starting server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			stop, cancelStop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancelStop()
			<-stop.Done()

			log.Info().Msg("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

// bindSimulationFlags registers the simulate flags on cmd and binds them to
// v, with the env-derived config as defaults.
func bindSimulationFlags(cmd *cobra.Command, v *viper.Viper, cfg *config.Config) {
	defaults := simulation.DefaultConfig()
	flags := cmd.Flags()
	flags.Int("patients", cfg.SimPatients, "patients to register")
	flags.Int("history-days", cfg.SimHistoryDays, "days of history to fill before now")
	flags.Int("future-days", cfg.SimFutureDays, "days of agenda to book after today")
	flags.Float64("p-active", cfg.SimActiveProb, "probability that a past day had visits")
	flags.Float64("p-paid", cfg.SimPaidProb, "probability that a visit was paid in full")
	flags.Int("daily-bookings", cfg.SimDailyBookings, "appointments booked per future day")
	flags.Uint64("seed", cfg.SimSeed, "random seed, 0 picks one from the clock")

	_ = v.BindPFlag("patients", flags.Lookup("patients"))
	_ = v.BindPFlag("history_days", flags.Lookup("history-days"))
	_ = v.BindPFlag("future_days", flags.Lookup("future-days"))
	_ = v.BindPFlag("p_active", flags.Lookup("p-active"))
	_ = v.BindPFlag("p_paid", flags.Lookup("p-paid"))
	_ = v.BindPFlag("daily_bookings", flags.Lookup("daily-bookings"))
	_ = v.BindPFlag("seed", flags.Lookup("seed"))

	v.SetDefault("min_daily_visits", defaults.MinDailyVisits)
	v.SetDefault("max_daily_visits", defaults.MaxDailyVisits)
	v.SetDefault("open_hour", defaults.OpenHour)
	v.SetDefault("close_hour", defaults.CloseHour)
	v.SetDefault("booking_open_hour", defaults.BookingOpenHour)
	v.SetDefault("booking_close_hour", defaults.BookingCloseHour)
}

// simulationConfigFrom decodes the bound flags into a run config.
func simulationConfigFrom(v *viper.Viper) (simulation.Config, uint64, error) {
	var cfg simulation.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return simulation.Config{}, 0, fmt.Errorf("decode simulation flags: %w", err)
	}
	return cfg, v.GetUint64("seed"), cfg.Validate()
}

func simulateCmd() *cobra.Command {
	cfg := config.LoadConfig()
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fill the ledger with a simulated history and agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.InitLogger(cfg.AppName, "cli")

			simCfg, seed, err := simulationConfigFrom(v)
			if err != nil {
				return err
			}

			db, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			opts := []simulation.Option{simulation.WithLocation(cfg.Location())}
			if seed != 0 {
				opts = append(opts, simulation.WithSeed(seed))
			}
			rdb, err := config.ConnectRedis()
			if err != nil {
				log.Warn().Err(err).Msg("redis unavailable, running without the simulation lock")
			}
			if rdb != nil {
				opts = append(opts, simulation.WithRunLock(util.NewRunLock(rdb, simulationLockKey, 0)))
			}

			summary, err := simulation.New(db, simCfg, opts...).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("simulation rolled back: %w", err)
			}

			// The run is committed; record its closing audit row.
			util.SetAuditLoggerDB(db)
			defer util.SetAuditLoggerDB(nil)
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventSimulationFinished,
				RunID:     summary.RunID,
				Actor:     "cli",
				Message:   "simulation summary",
				Details: map[string]interface{}{
					"patients":  summary.PatientsRegistered,
					"completed": summary.Completed,
					"scheduled": summary.Scheduled,
					"billed":    summary.Billed.StringFixed(2),
					"collected": summary.Collected.StringFixed(2),
				},
			})

			fmt.Fprintf(cmd.OutOrStdout(), "run %s committed in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
			fmt.Fprintf(cmd.OutOrStdout(), "  patients registered: %d\n", summary.PatientsRegistered)
			fmt.Fprintf(cmd.OutOrStdout(), "  completed visits:    %d (%d paid in full, %d active days)\n", summary.Completed, summary.FullyPaid, summary.ActiveDays)
			fmt.Fprintf(cmd.OutOrStdout(), "  booked appointments: %d\n", summary.Scheduled)
			fmt.Fprintf(cmd.OutOrStdout(), "  billed %s, collected %s, outstanding %s\n",
				summary.Billed.StringFixed(2), summary.Collected.StringFixed(2), summary.Outstanding.StringFixed(2))
			return nil
		},
	}
	bindSimulationFlags(cmd, v, cfg)
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the service catalog if it is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			util.InitLogger(cfg.AppName, "cli")

			db, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			seeded, err := ledger.NewCatalog(db).EnsureSeeded(cmd.Context(), ledger.DefaultServices())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "catalog seeded with %d services\n", len(ledger.DefaultServices()))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog already populated, nothing to do")
			}
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var operator string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator bearer token for write routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			util.SetJWTSecret(os.Getenv("JWTSECRET"))

			token, err := util.IssueOperatorToken(operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "recepcion", "operator name recorded in the audit trail")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
