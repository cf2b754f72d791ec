package msmcp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const describeColumnsSQL = `
SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION;
`

// DescribeTable returns the ordered column list of one table. The table
// identifier must be in schema.table form; zero matching columns means the
// table does not exist on that connection.
func (p *SqlServerMcp) DescribeTable(ctx context.Context, input DescribeTableInput) (*DescribeTableOutput, error) {
	startTime := time.Now()

	schema, table, err := splitTableIdent(input.Table)
	if err != nil {
		return nil, err
	}

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("DescribeTable: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.SchemaTimeoutSeconds)*time.Second)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, describeColumnsSQL, schema, table)
	if err != nil {
		return nil, fmt.Errorf("DescribeTable query failed: %w", err)
	}
	defer rows.Close()

	columns := []ColumnInfo{}
	for rows.Next() {
		col, err := scanColumnInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("DescribeTable scan failed: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DescribeTable rows error: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found on connection %q", input.Table, connName)
	}

	p.logger.Info().
		Str("connection", connName).
		Str("table", input.Table).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(columns)).
		Msg("DescribeTable executed")

	return &DescribeTableOutput{
		Connection: connName,
		Schema:     schema,
		Name:       table,
		Columns:    columns,
	}, nil
}

// splitTableIdent splits a schema.table identifier into its parts.
func splitTableIdent(ident string) (schema, table string, err error) {
	parts := strings.SplitN(ident, ".", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("table must be in schema.table form (e.g. dbo.users), got %q", ident)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// scanColumnInfo scans one INFORMATION_SCHEMA.COLUMNS row.
func scanColumnInfo(rows *sql.Rows) (ColumnInfo, error) {
	var col ColumnInfo
	var nullable string
	var maxLength sql.NullInt64
	if err := rows.Scan(&col.Name, &col.DataType, &nullable, &maxLength); err != nil {
		return ColumnInfo{}, err
	}
	col.Nullable = strings.EqualFold(nullable, "YES")
	if maxLength.Valid {
		col.MaxLength = &maxLength.Int64
	}
	return col, nil
}
