package msmcp

// Config is the base configuration used by library mode via New().
type Config struct {
	// Connections maps logical connection names to SQL Server targets.
	// Loaded once at startup and immutable afterwards; at least one entry
	// is required.
	Connections map[string]ConnectionConfig `json:"connections"`

	// DefaultConnection is used when a tool call does not name a
	// connection. May be left empty when exactly one connection is
	// configured.
	DefaultConnection string `json:"default_connection"`

	Pool         PoolConfig         `json:"pool"`
	Query        QueryConfig        `json:"query"`
	Sanitization []SanitizationRule `json:"sanitization"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Server  ServerSettings `json:"server"`
	Logging LoggingConfig  `json:"logging"`
}

// ConnectionConfig holds the parameters of one named SQL Server target.
type ConnectionConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`

	// ConnString, when set, is used verbatim and the fields above are
	// ignored. Useful for options the field form does not cover
	// (encrypt, app name, failover partner).
	ConnString string `json:"conn_string,omitempty"`
}

// PoolConfig holds database/sql pool settings, applied per connection.
type PoolConfig struct {
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime string `json:"conn_max_lifetime"`
	ConnMaxIdleTime string `json:"conn_max_idle_time"`
}

// ServerSettings holds HTTP server settings for CLI mode.
type ServerSettings struct {
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, stderr, or file path
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	// DefaultRowLimit is the TOP value inserted into SELECTs that carry no
	// explicit row limit. MaxRowLimit is the ceiling an explicit TOP
	// literal is clamped to. DefaultRowLimit must not exceed MaxRowLimit.
	DefaultRowLimit int `json:"default_row_limit"`
	MaxRowLimit     int `json:"max_row_limit"`

	DefaultTimeoutSeconds int `json:"default_timeout_seconds"`
	SchemaTimeoutSeconds  int `json:"schema_timeout_seconds"`

	MaxSQLLength    int `json:"max_sql_length"`
	MaxResultLength int `json:"max_result_length"`

	TimeoutRules []TimeoutRule `json:"timeout_rules"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SanitizationRule defines a regex-based field sanitization rule.
type SanitizationRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}
