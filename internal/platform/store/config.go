package store

import (
	"strings"
	"time"

	"tagtime/internal/platform/config"
	"tagtime/internal/platform/store/sqlite"
)

// Dialect names a sql backend
type Dialect string

const (
	// DialectPostgres is the shared multi-device backend
	DialectPostgres Dialect = "postgres"
	// DialectSQLite is the local single-device backend
	DialectSQLite Dialect = "sqlite"
)

// MemoryPath opens a private in-memory sqlite database
const MemoryPath = sqlite.Memory

// Config aggregates per backend configuration
type Config struct {
	AppName string

	// Driver selects the ping log backend; empty opens no sql backend
	Driver Dialect

	PG     PGConfig
	SQLite SQLiteConfig
	CH     CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// StatementTimeout is sent as the session statement_timeout; 0 keeps the server's
	StatementTimeout time.Duration

	// Guard/boot knobs:
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// SQLiteConfig configures the local database file
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}

// ConfigFromEnv reads the SERVICE_* backend knobs
// SERVICE_STORE_DRIVER (default sqlite) selects sqlite | postgres
// SERVICE_SQLITE_PATH (default tagtime.db) is the local database file
// SERVICE_PGSQL_DBURL is required when the driver is postgres
// SERVICE_CLICKHOUSE_DBURL enables the export sink when set
func ConfigFromEnv(root config.Conf, appName string) Config {
	drv := root.Prefix("SERVICE_STORE_")
	pgc := root.Prefix("SERVICE_PGSQL_")
	sqc := root.Prefix("SERVICE_SQLITE_")
	chc := root.Prefix("SERVICE_CLICKHOUSE_")

	cfg := Config{
		AppName: appName,
		Driver:  Dialect(strings.ToLower(drv.MayEnum("DRIVER", string(DialectSQLite), string(DialectSQLite), string(DialectPostgres)))),
		SQLite: SQLiteConfig{
			Path:        sqc.MayString("PATH", "tagtime.db"),
			BusyTimeout: sqc.MayDuration("BUSY_TIMEOUT", 5*time.Second),
			LogSQL:      sqc.MayBool("LOG_SQL", false),
			SlowQueryMs: sqc.MayInt("SLOW_MS", 200),
		},
	}
	if cfg.Driver == DialectPostgres {
		cfg.PG = PGConfig{
			URL:         pgc.MustString("DBURL"),
			MaxConns:    int32(pgc.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgc.MayInt("SLOW_MS", 500),
			LogSQL:      pgc.MayBool("LOG_SQL", false),

			StatementTimeout: pgc.MayDuration("STATEMENT_TIMEOUT", 0),
		}
	}
	if u := chc.MayString("DBURL", ""); u != "" {
		cfg.CH = CHConfig{Enabled: true, URL: u, ClientName: "tagtime", ClientTag: appName}
	}
	return cfg
}
