package msmcp

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/msmcp/sqlserver-mcp/internal/rowcap"
	"github.com/msmcp/sqlserver-mcp/internal/safety"
)

// Query executes the full read-only query pipeline: classifier, row-cap
// rewrite, timeout resolution, execution, sanitization, truncation. All
// failures are converted to output.Error — callers only check one field,
// never a Go error.
func (p *SqlServerMcp) Query(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return p.queryError(connName, err)
	}

	if err := p.acquireSlot(ctx); err != nil {
		return p.queryError(connName, err)
	}
	defer p.releaseSlot()

	if len(input.SQL) > p.config.Query.MaxSQLLength {
		return p.queryError(connName, fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes",
			len(input.SQL), p.config.Query.MaxSQLLength))
	}

	// Classification is terminal: a rejected query is never retried or
	// partially executed, and the rejection message stays generic.
	if err := safety.Check(input.SQL); err != nil {
		return p.queryError(connName, err)
	}

	capped := rowcap.Apply(input.SQL, p.config.Query.DefaultRowLimit, p.config.Query.MaxRowLimit)

	timeoutDur, timeoutRule := p.timeoutMgr.GetTimeoutWithPattern(capped)
	queryCtx, cancel := context.WithTimeout(ctx, timeoutDur)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, capped)
	if err != nil {
		return p.queryError(connName, err)
	}

	result, err := collectRows(rows)
	if err != nil {
		return p.queryError(connName, err)
	}
	result.Connection = connName

	sanitized := p.sanitizer.HasRules()
	result.Rows = p.sanitizer.SanitizeRows(result.Rows)

	p.truncateIfNeeded(result)

	logEvent := p.logger.Info().
		Str("connection", connName).
		Str("sql", truncateForLog(capped, 200)).
		Dur("duration", time.Since(startTime)).
		Int("row_count", len(result.Rows))
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	if sanitized {
		logEvent = logEvent.Bool("sanitized", true)
	}
	logEvent.Msg("query executed")

	return result
}

// collectRows reads all rows into JSON-friendly maps keyed by column name.
func collectRows(rows *sql.Rows) (*QueryOutput, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := make([]map[string]interface{}, 0)
	values := make([]interface{}, len(columns))
	scanTargets := make([]interface{}, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryOutput{Columns: columns, Rows: resultRows}, nil
}

// convertValue converts a driver-returned value to a JSON-friendly Go type.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float64:
		if math.IsNaN(val) {
			return "NaN"
		}
		if math.IsInf(val, 1) {
			return "Infinity"
		}
		if math.IsInf(val, -1) {
			return "-Infinity"
		}
		return val
	case []byte:
		// varbinary, image, rowversion — base64 encode. Character data
		// arrives as string from go-mssqldb, so this does not mangle text.
		return base64.StdEncoding.EncodeToString(val)
	default:
		return val
	}
}

// queryError converts any error into a QueryOutput with the error message.
func (p *SqlServerMcp) queryError(connName string, err error) *QueryOutput {
	p.logger.Error().Str("connection", connName).Err(err).Msg("query error")
	return &QueryOutput{Connection: connName, Error: err.Error()}
}

// truncateIfNeeded truncates query output rows if their JSON rendering
// exceeds MaxResultLength characters.
func (p *SqlServerMcp) truncateIfNeeded(output *QueryOutput) {
	jsonBytes, _ := json.Marshal(output.Rows)
	jsonStr := string(jsonBytes)
	if utf8.RuneCountInString(jsonStr) <= p.config.Query.MaxResultLength {
		return
	}
	runes := []rune(jsonStr)
	truncated := string(runes[:p.config.Query.MaxResultLength])
	output.Rows = nil
	output.Error = truncated + "...[truncated] Result is too long! Add limits in your query!"
}

// truncateForLog truncates a string for log output to avoid oversized log entries.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
