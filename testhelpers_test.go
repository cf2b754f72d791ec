package msmcp

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
)

// testConfig returns a two-connection config with sane limits.
func testConfig() Config {
	return Config{
		Connections: map[string]ConnectionConfig{
			"primary":   {Host: "localhost", Port: 1433, Database: "app", User: "agent"},
			"reporting": {Host: "localhost", Port: 1434, Database: "dw", User: "agent"},
		},
		DefaultConnection: "primary",
		Pool:              PoolConfig{MaxOpenConns: 4},
		Query: QueryConfig{
			DefaultRowLimit:       100,
			MaxRowLimit:           1000,
			DefaultTimeoutSeconds: 30,
			SchemaTimeoutSeconds:  10,
		},
	}
}

// newTestEngine builds an engine whose "primary" and "reporting" connections
// both point at the same sqlmock database.
func newTestEngine(t *testing.T, config Config) (*SqlServerMcp, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	validateConfig(&config)
	pools := map[string]*sql.DB{}
	for name := range config.Connections {
		pools[name] = db
	}
	p, err := newEngine(config, pools, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return p, mock
}
