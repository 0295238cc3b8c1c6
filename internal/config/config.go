package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	Port string

	// DataFile is the spreadsheet export (.xlsx or .csv) to serve.
	DataFile string
	// DataSheet selects the workbook sheet; empty means the first one.
	DataSheet string
	// DataHeader is false for positional exports without a header row.
	DataHeader bool

	// ReferenceZone is the zone every timestamp is expressed in.
	ReferenceZone *time.Location

	CacheEnabled bool
	// ReloadInterval re-ingests the data file periodically (0 = never).
	ReloadInterval time.Duration
	LoadTimeout    time.Duration

	SourceMaxRetries int
	SyntheticSeed    uint64

	LogLevel    string
	LogFormat   string
	CORSOrigins string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DataFile = getenvDefault("DATA_FILE", "dados_sensores.xlsx")
	cfg.DataSheet = os.Getenv("DATA_SHEET")
	cfg.DataHeader = getenvBool("DATA_HEADER", true)

	zone := getenvDefault("REFERENCE_TZ", "America/Sao_Paulo")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_TZ: %w", err)
	}
	cfg.ReferenceZone = loc

	cfg.CacheEnabled = getenvBool("CACHE_ENABLED", true)

	cfg.ReloadInterval, err = time.ParseDuration(getenvDefault("RELOAD_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RELOAD_INTERVAL: %w", err)
	}
	if cfg.ReloadInterval < 0 {
		return nil, fmt.Errorf("invalid RELOAD_INTERVAL: must not be negative")
	}

	cfg.LoadTimeout, err = time.ParseDuration(getenvDefault("LOAD_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOAD_TIMEOUT: %w", err)
	}

	cfg.SourceMaxRetries = getenvInt("SOURCE_MAX_RETRIES", 2)
	if cfg.SourceMaxRetries < 0 {
		return nil, fmt.Errorf("invalid SOURCE_MAX_RETRIES: must not be negative")
	}

	cfg.SyntheticSeed, err = strconv.ParseUint(getenvDefault("SYNTHETIC_SEED", "42"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTHETIC_SEED: %w", err)
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "console")
	cfg.CORSOrigins = getenvDefault("CORS_ORIGINS", "*")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}
