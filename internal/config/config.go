package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DecimalFixLine  = "line"
	DecimalFixField = "field"
)

type Config struct {
	WorkDir        string
	InputBasename  string
	OutputBasename string

	DecimalFixMode string

	B3PortfolioURL  string
	B3Index         string
	B3Language      string
	B3Segment       string
	B3PageSize      int
	B3TimeoutMs     int
	B3FetchAllPages bool
	B3RateLimitRPS  int

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		WorkDir:        getEnv("IBOV_WORK_DIR", cwd),
		InputBasename:  getEnv("IBOV_INPUT_BASENAME", "ibov_stocks"),
		OutputBasename: getEnv("IBOV_OUTPUT_BASENAME", "sorted_ibov_stocks"),

		DecimalFixMode: strings.ToLower(strings.TrimSpace(getEnv("DECIMAL_FIX_MODE", DecimalFixLine))),

		B3PortfolioURL:  getEnv("B3_PORTFOLIO_URL", "https://sistemaswebb3-listados.b3.com.br/indexProxy/indexCall/GetPortfolioDay/"),
		B3Index:         getEnv("B3_INDEX", "IBOV"),
		B3Language:      getEnv("B3_LANGUAGE", "en-us"),
		B3Segment:       getEnv("B3_SEGMENT", "1"),
		B3PageSize:      getEnvInt("B3_PAGE_SIZE", 120),
		B3TimeoutMs:     getEnvInt("B3_TIMEOUT_MS", 30000),
		B3FetchAllPages: getEnvBool("B3_FETCH_ALL_PAGES", false),
		B3RateLimitRPS:  getEnvInt("B3_RATE_LIMIT_RPS", 2),

		LogLevel: getEnv("LOG_LEVEL", "warn"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Require("IBOV_INPUT_BASENAME", c.InputBasename); err != nil {
		return err
	}
	if err := c.Require("IBOV_OUTPUT_BASENAME", c.OutputBasename); err != nil {
		return err
	}
	if err := c.Require("B3_PORTFOLIO_URL", c.B3PortfolioURL); err != nil {
		return err
	}
	if c.DecimalFixMode != DecimalFixLine && c.DecimalFixMode != DecimalFixField {
		return fmt.Errorf("unsupported DECIMAL_FIX_MODE: %s", c.DecimalFixMode)
	}
	if c.B3PageSize <= 0 {
		return fmt.Errorf("B3_PAGE_SIZE must be positive, got %d", c.B3PageSize)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// InputPath is the locally saved B3 export, e.g. ./ibov_stocks.csv.
func (c Config) InputPath() string {
	return filepath.Join(c.WorkDir, c.InputBasename+".csv")
}

func (c Config) TempPath() string {
	return filepath.Join(c.WorkDir, c.InputBasename+"_temp.csv")
}

func (c Config) CSVOutputPath() string {
	return filepath.Join(c.WorkDir, c.OutputBasename+".csv")
}

func (c Config) XLSXOutputPath() string {
	return filepath.Join(c.WorkDir, c.OutputBasename+".xlsx")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
