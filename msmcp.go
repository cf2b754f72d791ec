package msmcp

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/rs/zerolog"

	"github.com/msmcp/sqlserver-mcp/internal/sanitize"
	"github.com/msmcp/sqlserver-mcp/internal/timeout"
)

// SqlServerMcp is the core engine behind the MCP tools. All exported methods
// are safe for concurrent use from multiple goroutines: the connection table
// and configuration are immutable after New, and every other component is a
// pure function over its inputs.
type SqlServerMcp struct {
	config      Config
	pools       map[string]*sql.DB
	defaultName string
	semaphore   chan struct{}
	sanitizer   *sanitize.Sanitizer
	timeoutMgr  *timeout.Manager
	logger      zerolog.Logger
}

// New creates a new SqlServerMcp instance with one database/sql pool per
// configured connection. Panics on invalid config. Returns error only for
// runtime failures (e.g., an unusable connection string).
func New(ctx context.Context, config Config, logger zerolog.Logger) (*SqlServerMcp, error) {
	validateConfig(&config)

	pools := make(map[string]*sql.DB, len(config.Connections))
	for name, cc := range config.Connections {
		db, err := sql.Open("sqlserver", BuildConnString(cc))
		if err != nil {
			for _, opened := range pools {
				opened.Close()
			}
			return nil, fmt.Errorf("failed to open connection %q: %w", name, err)
		}
		db.SetMaxOpenConns(config.Pool.MaxOpenConns)
		db.SetMaxIdleConns(config.Pool.MaxIdleConns)
		if config.Pool.ConnMaxLifetime != "" {
			d, err := time.ParseDuration(config.Pool.ConnMaxLifetime)
			if err != nil {
				panic(fmt.Sprintf("msmcp: invalid pool.conn_max_lifetime %q: %v", config.Pool.ConnMaxLifetime, err))
			}
			db.SetConnMaxLifetime(d)
		}
		if config.Pool.ConnMaxIdleTime != "" {
			d, err := time.ParseDuration(config.Pool.ConnMaxIdleTime)
			if err != nil {
				panic(fmt.Sprintf("msmcp: invalid pool.conn_max_idle_time %q: %v", config.Pool.ConnMaxIdleTime, err))
			}
			db.SetConnMaxIdleTime(d)
		}
		pools[name] = db
	}

	return newEngine(config, pools, logger)
}

// newEngine wires the engine from validated config and already-open pools.
// Tests use it to inject mock databases.
func newEngine(config Config, pools map[string]*sql.DB, logger zerolog.Logger) (*SqlServerMcp, error) {
	defaultName := config.DefaultConnection
	if defaultName == "" {
		for name := range config.Connections {
			defaultName = name
		}
	}

	san, err := sanitize.NewSanitizer(mapSanitizationRules(config.Sanitization))
	if err != nil {
		return nil, err
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}
	tmgr, err := timeout.NewManager(timeout.Config{
		DefaultTimeout: time.Duration(config.Query.DefaultTimeoutSeconds) * time.Second,
		Rules:          timeoutRules,
	})
	if err != nil {
		return nil, err
	}

	return &SqlServerMcp{
		config:      config,
		pools:       pools,
		defaultName: defaultName,
		semaphore:   make(chan struct{}, config.Pool.MaxOpenConns),
		sanitizer:   san,
		timeoutMgr:  tmgr,
		logger:      logger,
	}, nil
}

// validateConfig checks startup invariants and applies defaults for zero
// values. Config bugs are panics, matching the New contract.
func validateConfig(config *Config) {
	if len(config.Connections) == 0 {
		panic("msmcp: at least one connection must be configured")
	}
	if config.DefaultConnection != "" {
		if _, ok := config.Connections[config.DefaultConnection]; !ok {
			panic(fmt.Sprintf("msmcp: default_connection %q is not a configured connection", config.DefaultConnection))
		}
	} else if len(config.Connections) > 1 {
		panic("msmcp: default_connection is required when more than one connection is configured")
	}
	if config.Pool.MaxOpenConns <= 0 {
		panic("msmcp: pool.max_open_conns must be > 0")
	}
	if config.Query.DefaultTimeoutSeconds <= 0 {
		panic("msmcp: query.default_timeout_seconds must be > 0")
	}
	if config.Query.SchemaTimeoutSeconds <= 0 {
		panic("msmcp: query.schema_timeout_seconds must be > 0")
	}

	if config.Query.DefaultRowLimit == 0 {
		config.Query.DefaultRowLimit = 100
	}
	if config.Query.MaxRowLimit == 0 {
		config.Query.MaxRowLimit = 1000
	}
	if config.Query.DefaultRowLimit < 0 || config.Query.MaxRowLimit < 0 {
		panic("msmcp: query row limits must be > 0")
	}
	if config.Query.DefaultRowLimit > config.Query.MaxRowLimit {
		panic("msmcp: query.default_row_limit must be <= query.max_row_limit")
	}

	if config.Query.MaxSQLLength == 0 {
		config.Query.MaxSQLLength = 100000
	}
	if config.Query.MaxResultLength == 0 {
		config.Query.MaxResultLength = 100000
	}
	if config.Query.MaxSQLLength < 0 || config.Query.MaxResultLength < 0 {
		panic("msmcp: query length limits must be > 0")
	}
}

// BuildConnString renders a go-mssqldb connection string from a
// ConnectionConfig. ConnString, when set, wins.
func BuildConnString(cc ConnectionConfig) string {
	if cc.ConnString != "" {
		return cc.ConnString
	}
	parts := []string{}
	if cc.Host != "" {
		parts = append(parts, fmt.Sprintf("server=%s", cc.Host))
	}
	if cc.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", cc.Port))
	}
	if cc.Database != "" {
		parts = append(parts, fmt.Sprintf("database=%s", cc.Database))
	}
	if cc.User != "" {
		parts = append(parts, fmt.Sprintf("user id=%s", cc.User))
	}
	if cc.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cc.Password))
	}
	return strings.Join(parts, ";")
}

// Ping verifies every configured connection.
func (p *SqlServerMcp) Ping(ctx context.Context) error {
	for name, db := range p.pools {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("connection %q: %w", name, err)
		}
	}
	return nil
}

// Close closes all connection pools. Accepts context for API
// forward-compatibility; database/sql close is not context-aware.
func (p *SqlServerMcp) Close(ctx context.Context) {
	for _, db := range p.pools {
		db.Close()
	}
}

// ListDatabases returns the configured connection names, sorted, plus the
// default. Purely configuration — no database round trip.
func (p *SqlServerMcp) ListDatabases(ctx context.Context) *ListDatabasesOutput {
	return &ListDatabasesOutput{
		Connections: p.connectionNames(),
		Default:     p.defaultName,
	}
}

// resolveConnection maps an optional connection name to its pool. An empty
// name falls back to the default. Unknown names fail with the full list of
// valid choices so the agent can self-correct.
func (p *SqlServerMcp) resolveConnection(name string) (string, *sql.DB, error) {
	if name == "" {
		name = p.defaultName
	}
	db, ok := p.pools[name]
	if !ok {
		return name, nil, fmt.Errorf("unknown connection %q: valid connections are %s",
			name, strings.Join(p.connectionNames(), ", "))
	}
	return name, db, nil
}

func (p *SqlServerMcp) connectionNames() []string {
	names := make([]string, 0, len(p.pools))
	for name := range p.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// acquireSlot takes a semaphore slot, respecting context cancellation.
func (p *SqlServerMcp) acquireSlot(ctx context.Context) error {
	select {
	case p.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire query slot: all %d slots are in use, context cancelled while waiting: %w",
			cap(p.semaphore), ctx.Err())
	}
}

func (p *SqlServerMcp) releaseSlot() {
	<-p.semaphore
}

// mapSanitizationRules converts msmcp SanitizationRules to internal sanitize.Rules.
func mapSanitizationRules(rules []SanitizationRule) []sanitize.Rule {
	result := make([]sanitize.Rule, len(rules))
	for i, r := range rules {
		result[i] = sanitize.Rule{
			Pattern:     r.Pattern,
			Replacement: r.Replacement,
		}
	}
	return result
}
