package msmcp

import (
	"context"
	"fmt"
	"time"
)

const listTablesSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME;
`

// ListTables returns all base tables on the resolved connection as
// schema-qualified names. Does NOT go through the classifier/row-cap
// pipeline — the statement is fixed.
func (p *SqlServerMcp) ListTables(ctx context.Context, input ListTablesInput) (*ListTablesOutput, error) {
	startTime := time.Now()

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("ListTables: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.SchemaTimeoutSeconds)*time.Second)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, listTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("ListTables query failed: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("ListTables scan failed: %w", err)
		}
		tables = append(tables, schema+"."+name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTables rows error: %w", err)
	}

	p.logger.Info().
		Str("connection", connName).
		Dur("duration", time.Since(startTime)).
		Int("table_count", len(tables)).
		Msg("ListTables executed")

	return &ListTablesOutput{Connection: connName, Tables: tables}, nil
}
