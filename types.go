package msmcp

import "github.com/msmcp/sqlserver-mcp/internal/plan"

// QueryInput is the input for the Query tool.
type QueryInput struct {
	SQL        string `json:"sql"`
	Connection string `json:"connection,omitempty"`
}

// QueryOutput is the output of the Query tool. All failures (rejected
// queries, SQL Server errors, Go errors) are placed in Error, so callers
// only need to check one field.
type QueryOutput struct {
	Connection string                   `json:"connection"`
	Columns    []string                 `json:"columns"`
	Rows       []map[string]interface{} `json:"rows"`
	Error      string                   `json:"error,omitempty"`
}

// ListDatabasesOutput is the output of the ListDatabases tool.
type ListDatabasesOutput struct {
	Connections []string `json:"connections"`
	Default     string   `json:"default"`
}

// ListTablesInput is the input for the ListTables tool.
type ListTablesInput struct {
	Connection string `json:"connection,omitempty"`
}

// ListTablesOutput is the output of the ListTables tool. Table names are
// schema-qualified ("dbo.users").
type ListTablesOutput struct {
	Connection string   `json:"connection"`
	Tables     []string `json:"tables"`
}

// DescribeTableInput is the input for the DescribeTable tool. Table must be
// in schema.table form.
type DescribeTableInput struct {
	Table      string `json:"table"`
	Connection string `json:"connection,omitempty"`
}

// ColumnInfo describes a single column.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	// MaxLength is set only for character and binary types; -1 means
	// varchar(max)/nvarchar(max)/varbinary(max).
	MaxLength *int64 `json:"max_length,omitempty"`
}

// DescribeTableOutput is the output of the DescribeTable tool.
type DescribeTableOutput struct {
	Connection string       `json:"connection"`
	Schema     string       `json:"schema"`
	Name       string       `json:"name"`
	Columns    []ColumnInfo `json:"columns"`
}

// SchemaInput is the input for the GetDatabaseSchema tool.
type SchemaInput struct {
	Connection string `json:"connection,omitempty"`
}

// TableSchema is one table in a schema snapshot.
type TableSchema struct {
	Schema     string       `json:"schema"`
	Name       string       `json:"name"`
	Columns    []ColumnInfo `json:"columns"`
	PrimaryKey []string     `json:"primary_key,omitempty"`
}

// ForeignKeyEdge is one foreign-key column pair in a schema snapshot.
// The referenced table may fall outside the snapshot's table list when
// introspection filtering differs; that is not an inconsistency.
type ForeignKeyEdge struct {
	Name       string `json:"name"`
	FromTable  string `json:"from_table"` // schema-qualified
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"` // schema-qualified
	ToColumn   string `json:"to_column"`
}

// SchemaOutput is the output of the GetDatabaseSchema tool: a snapshot built
// fresh from live metadata on every call.
type SchemaOutput struct {
	Connection  string           `json:"connection"`
	Tables      []TableSchema    `json:"tables"`
	ForeignKeys []ForeignKeyEdge `json:"foreign_keys"`
}

// SearchSchemaInput is the input for the SearchSchema tool.
type SearchSchemaInput struct {
	Keyword    string `json:"keyword"`
	Connection string `json:"connection,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SchemaMatch is one search hit: either a table whose name matched, or a
// column whose name matched (IsColumnMatch true, Column and DataType set).
type SchemaMatch struct {
	Schema        string `json:"schema"`
	Table         string `json:"table"`
	Column        string `json:"column,omitempty"`
	DataType      string `json:"data_type,omitempty"`
	IsColumnMatch bool   `json:"is_column_match"`
}

// SearchSchemaOutput is the output of the SearchSchema tool.
type SearchSchemaOutput struct {
	Connection string        `json:"connection"`
	Matches    []SchemaMatch `json:"matches"`
}

// ExplainInput is the input for the Explain tool.
type ExplainInput struct {
	SQL        string `json:"sql"`
	Connection string `json:"connection,omitempty"`
}

// ExplainOutput is the output of the Explain tool. Error is set only when
// the query was rejected or the engine failed to produce a plan; a plan that
// was produced but could not be parsed still yields a Plan with fallback
// text.
type ExplainOutput struct {
	Connection string       `json:"connection"`
	Plan       plan.Summary `json:"plan"`
	Error      string       `json:"error,omitempty"`
}
