package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName    string `json:"appname"`
	AppEnv     string `json:"appenv"`
	AppPort    uint16 `json:"appport"`
	GinMode    string `json:"ginmode"`
	DBDriver   string `json:"dbdriver"`
	DBHost     string `json:"dbhost"`
	DBPort     uint16 `json:"dbport"`
	DBName     string `json:"dbname"`
	DBUSER     string `json:"dbuser"`
	DBPass     string `json:"dbpass"`
	SQLitePath string `json:"sqlitepath"`
	ClinicTZ   string `json:"clinictz"`

	SimPatients      int     `json:"sim_patients"`
	SimHistoryDays   int     `json:"sim_history_days"`
	SimFutureDays    int     `json:"sim_future_days"`
	SimActiveProb    float64 `json:"sim_p_active"`
	SimPaidProb      float64 `json:"sim_p_paid"`
	SimDailyBookings int     `json:"sim_daily_bookings"`
	SimSeed          uint64  `json:"sim_seed"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
		config = loadFromEnv()
	})
	return config
}

func loadFromEnv() *Config {
	appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
	dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
	seed, _ := strconv.ParseUint(os.Getenv("SIM_SEED"), 10, 64)

	return &Config{
		AppName:    envOr("APPNAME", "dental-ledger"),
		AppEnv:     envOr("APPENV", "development"),
		AppPort:    uint16(appPort),
		GinMode:    envOr("GINMODE", "release"),
		DBDriver:   envOr("DBDRIVER", "mysql"),
		DBHost:     os.Getenv("DBHOST"),
		DBPort:     uint16(dbPort),
		DBName:     os.Getenv("DBNAME"),
		DBUSER:     os.Getenv("DBUSER"),
		DBPass:     os.Getenv("DBPASS"),
		SQLitePath: envOr("SQLITEPATH", "clinica_dental.db"),
		ClinicTZ:   os.Getenv("CLINICTZ"),

		SimPatients:      envInt("SIM_PATIENTS", 30),
		SimHistoryDays:   envInt("SIM_HISTORY_DAYS", 60),
		SimFutureDays:    envInt("SIM_FUTURE_DAYS", 7),
		SimActiveProb:    envFloat("SIM_P_ACTIVE", 0.6),
		SimPaidProb:      envFloat("SIM_P_PAID", 0.8),
		SimDailyBookings: envInt("SIM_DAILY_BOOKINGS", 3),
		SimSeed:          seed,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

// Location returns the clinic time zone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.ClinicTZ == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.ClinicTZ)
	if err != nil {
		log.Warn().Err(err).Str("tz", c.ClinicTZ).Msg("unknown clinic time zone, using local")
		return time.Local
	}
	return loc
}

// ConnectDB opens the relational store. APPENV=test uses a private in-memory
// SQLite database, DBDRIVER=sqlite a file database, anything else MySQL.
func ConnectDB() (*gorm.DB, error) {
	cfg := LoadConfig()
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch {
	case cfg.AppEnv == "test":
		dialector = sqlite.Open(fmt.Sprintf("file:clinic_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	case cfg.DBDriver == "sqlite":
		dialector = sqlite.Open(fmt.Sprintf("%s?_busy_timeout=5000", cfg.SQLitePath))
	default:
		// Build the Data Source Name (DSN) using the configuration values.
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// CloseDB releases the underlying connection pool.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
