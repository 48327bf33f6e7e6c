package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	FeedSim     = "sim"
	FeedMassive = "massive"
	FeedNone    = "none"

	StoreAuto       = "auto"
	StoreClickHouse = "clickhouse"
	StoreSQLite     = "sqlite"
	StoreNone       = "none"
)

type Config struct {
	Port     int
	Tokens   string
	Generate int
	Seed     int64
	LogLevel string

	Feed       string
	SimMinMS   int
	SimMaxMS   int
	Volatility float64
	APIKey     string
	WSURL      string

	Store      string
	SQLitePath string
	BatchSize  int
	FlushMS    int
	ClickHouse ClickHouseConfig
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Port <= 0 || c.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Generate < 0 {
		errs = multierror.Append(errs, fmt.Errorf("generate must be >= 0, got %d", c.Generate))
	}
	if _, ok := ParseLogLevel(c.LogLevel); !ok {
		errs = multierror.Append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	switch c.Feed {
	case FeedSim:
		if c.SimMinMS <= 0 || c.SimMaxMS <= c.SimMinMS {
			errs = multierror.Append(errs, fmt.Errorf("simulator delay must satisfy 0 < min < max, got [%d,%d)", c.SimMinMS, c.SimMaxMS))
		}
		if c.Volatility <= 0 || c.Volatility >= 1 {
			errs = multierror.Append(errs, fmt.Errorf("volatility must be in (0,1), got %g", c.Volatility))
		}
	case FeedMassive:
		if c.APIKey == "" {
			errs = multierror.Append(errs, fmt.Errorf("feed massive needs MASSIVE_API_KEY (or legacy POLYGON_API_KEY)"))
		}
	case FeedNone:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown feed %q (sim|massive|none)", c.Feed))
	}

	switch c.Store {
	case StoreAuto, StoreNone:
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = multierror.Append(errs, fmt.Errorf("sqlite path is empty"))
		}
	case StoreClickHouse:
		if err := validateIdent(c.ClickHouse.DB); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("clickhouse db: %w", err))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown store %q (auto|clickhouse|sqlite|none)", c.Store))
	}
	if c.BatchSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("batch size must be > 0"))
	}
	if c.FlushMS <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("flush ms must be > 0"))
	}

	return errs.ErrorOrNil()
}

func getenvAny(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envString(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}
