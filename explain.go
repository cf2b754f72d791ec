package msmcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msmcp/sqlserver-mcp/internal/plan"
	"github.com/msmcp/sqlserver-mcp/internal/safety"
)

// Explain captures the estimated execution plan for a permitted SELECT and
// returns its summary. The statement is never executed: under SHOWPLAN_XML
// the engine compiles the plan and returns it as the only result. Plan
// capture failures surface in output.Error; a plan that was captured but
// could not be parsed still yields a fallback summary.
func (p *SqlServerMcp) Explain(ctx context.Context, input ExplainInput) *ExplainOutput {
	startTime := time.Now()

	connName, db, err := p.resolveConnection(input.Connection)
	if err != nil {
		return p.explainError(connName, err)
	}

	if err := p.acquireSlot(ctx); err != nil {
		return p.explainError(connName, err)
	}
	defer p.releaseSlot()

	if len(input.SQL) > p.config.Query.MaxSQLLength {
		return p.explainError(connName, fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes",
			len(input.SQL), p.config.Query.MaxSQLLength))
	}

	if err := safety.Check(input.SQL); err != nil {
		return p.explainError(connName, err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.DefaultTimeoutSeconds)*time.Second)
	defer cancel()

	planXML, err := capturePlan(ctx, queryCtx, db, input.SQL)
	if err != nil {
		return p.explainError(connName, err)
	}

	summary := plan.Summarize(planXML)

	p.logger.Info().
		Str("connection", connName).
		Str("sql", truncateForLog(input.SQL, 200)).
		Dur("duration", time.Since(startTime)).
		Int("warning_count", len(summary.Warnings)).
		Msg("explain executed")

	return &ExplainOutput{Connection: connName, Plan: summary}
}

// capturePlan runs one statement under SHOWPLAN_XML on a pinned session and
// returns the plan document. SHOWPLAN_XML is session state, so the toggle,
// the statement, and the reset must all run on the same connection, and the
// reset must run even when the statement fails — otherwise the setting
// would leak back into the pool and turn unrelated queries into no-ops.
// The reset uses the parent context: queryCtx may already be expired.
func capturePlan(ctx, queryCtx context.Context, db *sql.DB, sqlText string) (string, error) {
	conn, err := db.Conn(queryCtx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire connection for plan capture: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(queryCtx, "SET SHOWPLAN_XML ON"); err != nil {
		return "", fmt.Errorf("failed to enable SHOWPLAN_XML: %w", err)
	}
	defer conn.ExecContext(ctx, "SET SHOWPLAN_XML OFF")

	rows, err := conn.QueryContext(queryCtx, sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", err
		}
		return "", errors.New("engine returned no plan document")
	}
	var planXML string
	if err := rows.Scan(&planXML); err != nil {
		return "", err
	}
	return planXML, rows.Err()
}

func (p *SqlServerMcp) explainError(connName string, err error) *ExplainOutput {
	p.logger.Error().Str("connection", connName).Err(err).Msg("explain error")
	return &ExplainOutput{Connection: connName, Error: err.Error()}
}
