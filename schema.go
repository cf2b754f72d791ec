package msmcp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQL queries for GetDatabaseSchema

const schemaColumnsSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH
FROM INFORMATION_SCHEMA.COLUMNS
ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION;
`

const schemaPrimaryKeysSQL = `
SELECT kcu.TABLE_SCHEMA, kcu.TABLE_NAME, kcu.COLUMN_NAME
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
    ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
ORDER BY kcu.TABLE_SCHEMA, kcu.TABLE_NAME, kcu.ORDINAL_POSITION;
`

const schemaForeignKeysSQL = `
SELECT
    rc.CONSTRAINT_NAME,
    kf.TABLE_SCHEMA, kf.TABLE_NAME, kf.COLUMN_NAME,
    kt.TABLE_SCHEMA, kt.TABLE_NAME, kt.COLUMN_NAME
FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kf
    ON rc.CONSTRAINT_NAME = kf.CONSTRAINT_NAME
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kt
    ON rc.UNIQUE_CONSTRAINT_NAME = kt.CONSTRAINT_NAME
    AND kf.ORDINAL_POSITION = kt.ORDINAL_POSITION
ORDER BY rc.CONSTRAINT_NAME, kf.ORDINAL_POSITION;
`

// GetDatabaseSchema builds a full snapshot of the resolved connection's
// schema: every table with its ordered columns and primary-key column set,
// plus all foreign-key column edges. The snapshot is built fresh from live
// metadata on every call and never cached. A foreign key referencing a
// table absent from the table list is kept as-is — introspection filtering
// can legitimately produce that.
func (p *SqlServerMcp) GetDatabaseSchema(ctx context.Context, input SchemaInput) (*SchemaOutput, error) {
	startTime := time.Now()

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("GetDatabaseSchema: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.SchemaTimeoutSeconds)*time.Second)
	defer cancel()

	tables, index, err := loadTables(queryCtx, db)
	if err != nil {
		return nil, err
	}
	if err := loadPrimaryKeys(queryCtx, db, tables, index); err != nil {
		return nil, err
	}
	foreignKeys, err := loadForeignKeys(queryCtx, db)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("connection", connName).
		Dur("duration", time.Since(startTime)).
		Int("table_count", len(tables)).
		Int("foreign_key_count", len(foreignKeys)).
		Msg("GetDatabaseSchema executed")

	return &SchemaOutput{
		Connection:  connName,
		Tables:      tables,
		ForeignKeys: foreignKeys,
	}, nil
}

// loadTables reads all columns and groups them into tables, preserving
// metadata order. index maps "schema.table" to the table's position.
func loadTables(ctx context.Context, db *sql.DB) ([]TableSchema, map[string]int, error) {
	rows, err := db.QueryContext(ctx, schemaColumnsSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("GetDatabaseSchema columns query failed: %w", err)
	}
	defer rows.Close()

	tables := []TableSchema{}
	index := map[string]int{}
	for rows.Next() {
		var schema, table string
		var col ColumnInfo
		var nullable string
		var maxLength sql.NullInt64
		if err := rows.Scan(&schema, &table, &col.Name, &col.DataType, &nullable, &maxLength); err != nil {
			return nil, nil, fmt.Errorf("GetDatabaseSchema columns scan failed: %w", err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		if maxLength.Valid {
			v := maxLength.Int64
			col.MaxLength = &v
		}

		key := schema + "." + table
		i, ok := index[key]
		if !ok {
			i = len(tables)
			index[key] = i
			tables = append(tables, TableSchema{Schema: schema, Name: table})
		}
		tables[i].Columns = append(tables[i].Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("GetDatabaseSchema columns rows error: %w", err)
	}
	return tables, index, nil
}

// loadPrimaryKeys attaches primary-key column names to their tables.
// PK rows for tables missing from the snapshot are skipped, not errors.
func loadPrimaryKeys(ctx context.Context, db *sql.DB, tables []TableSchema, index map[string]int) error {
	rows, err := db.QueryContext(ctx, schemaPrimaryKeysSQL)
	if err != nil {
		return fmt.Errorf("GetDatabaseSchema primary keys query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return fmt.Errorf("GetDatabaseSchema primary keys scan failed: %w", err)
		}
		if i, ok := index[schema+"."+table]; ok {
			tables[i].PrimaryKey = append(tables[i].PrimaryKey, column)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("GetDatabaseSchema primary keys rows error: %w", err)
	}
	return nil
}

// loadForeignKeys reads all foreign-key column edges.
func loadForeignKeys(ctx context.Context, db *sql.DB) ([]ForeignKeyEdge, error) {
	rows, err := db.QueryContext(ctx, schemaForeignKeysSQL)
	if err != nil {
		return nil, fmt.Errorf("GetDatabaseSchema foreign keys query failed: %w", err)
	}
	defer rows.Close()

	edges := []ForeignKeyEdge{}
	for rows.Next() {
		var name, fromSchema, fromTable, fromColumn, toSchema, toTable, toColumn string
		if err := rows.Scan(&name, &fromSchema, &fromTable, &fromColumn, &toSchema, &toTable, &toColumn); err != nil {
			return nil, fmt.Errorf("GetDatabaseSchema foreign keys scan failed: %w", err)
		}
		edges = append(edges, ForeignKeyEdge{
			Name:       name,
			FromTable:  fromSchema + "." + fromTable,
			FromColumn: fromColumn,
			ToTable:    toSchema + "." + toTable,
			ToColumn:   toColumn,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetDatabaseSchema foreign keys rows error: %w", err)
	}
	return edges, nil
}

// SQL queries for SearchSchema

const searchTablesSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_NAME LIKE @p1 ESCAPE '\'
ORDER BY TABLE_SCHEMA, TABLE_NAME;
`

const searchColumnsSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE COLUMN_NAME LIKE @p1 ESCAPE '\'
ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION;
`

// DefaultSearchResults is the max_results value the tool facade applies
// when the caller does not pass one.
const DefaultSearchResults = 30

// Bounds max_results is clamped to.
const (
	minSearchResults = 1
	maxSearchResults = 200
)

// SearchSchema finds tables and columns whose names contain the keyword
// (case-insensitivity follows the database collation). Table-name matches
// come first, then column-name matches, truncated to the clamped
// max_results.
func (p *SqlServerMcp) SearchSchema(ctx context.Context, input SearchSchemaInput) (*SearchSchemaOutput, error) {
	startTime := time.Now()

	keyword := strings.TrimSpace(input.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	maxResults := input.MaxResults
	if maxResults < minSearchResults {
		maxResults = minSearchResults
	}
	if maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("SearchSchema: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.SchemaTimeoutSeconds)*time.Second)
	defer cancel()

	pattern := "%" + escapeLikePattern(keyword) + "%"
	matches := []SchemaMatch{}

	rows, err := db.QueryContext(queryCtx, searchTablesSQL, pattern)
	if err != nil {
		return nil, fmt.Errorf("SearchSchema tables query failed: %w", err)
	}
	for rows.Next() {
		if len(matches) >= maxResults {
			break
		}
		var m SchemaMatch
		if err := rows.Scan(&m.Schema, &m.Table); err != nil {
			rows.Close()
			return nil, fmt.Errorf("SearchSchema tables scan failed: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("SearchSchema tables rows error: %w", err)
	}
	rows.Close()

	if len(matches) < maxResults {
		rows, err = db.QueryContext(queryCtx, searchColumnsSQL, pattern)
		if err != nil {
			return nil, fmt.Errorf("SearchSchema columns query failed: %w", err)
		}
		for rows.Next() {
			if len(matches) >= maxResults {
				break
			}
			m := SchemaMatch{IsColumnMatch: true}
			if err := rows.Scan(&m.Schema, &m.Table, &m.Column, &m.DataType); err != nil {
				rows.Close()
				return nil, fmt.Errorf("SearchSchema columns scan failed: %w", err)
			}
			matches = append(matches, m)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("SearchSchema columns rows error: %w", err)
		}
		rows.Close()
	}

	p.logger.Info().
		Str("connection", connName).
		Str("keyword", keyword).
		Dur("duration", time.Since(startTime)).
		Int("match_count", len(matches)).
		Msg("SearchSchema executed")

	return &SearchSchemaOutput{Connection: connName, Matches: matches}, nil
}

// escapeLikePattern escapes LIKE metacharacters in a keyword so the search
// treats it literally.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)
	return r.Replace(s)
}
