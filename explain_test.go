package msmcp

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const sampleShowplan = `<?xml version="1.0" encoding="utf-16"?>
<ShowPlanXML xmlns="http://schemas.microsoft.com/sqlserver/2004/07/showplan" Version="1.564">
  <BatchSequence><Batch><Statements><StmtSimple>
    <QueryPlan>
      <RelOp PhysicalOp="Table Scan" EstimatedTotalSubtreeCost="0.25">
        <RelOp PhysicalOp="Compute Scalar" EstimatedTotalSubtreeCost="0.1"/>
      </RelOp>
    </QueryPlan>
  </StmtSimple></Statements></Batch></BatchSequence>
</ShowPlanXML>`

func TestExplain_SummarizesCapturedPlan(t *testing.T) {
	t.Parallel()
	p, mock := newTestEngine(t, testConfig())

	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML ON")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).AddRow(sampleShowplan))
	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML OFF")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	output := p.Explain(context.Background(), ExplainInput{SQL: "SELECT * FROM users"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %q", output.Error)
	}
	if output.Plan.SummaryText != "Estimated plan parsed. Max subtree cost ≈ 0.25." {
		t.Fatalf("expected cost summary, got %q", output.Plan.SummaryText)
	}
	if output.Plan.EstimatedCost == nil || *output.Plan.EstimatedCost != 0.25 {
		t.Fatalf("expected estimated cost 0.25, got %v", output.Plan.EstimatedCost)
	}
	if len(output.Plan.Warnings) != 1 || output.Plan.Warnings[0] != "Plan contains operation: Table Scan" {
		t.Fatalf("expected table scan warning, got %v", output.Plan.Warnings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected full showplan toggle sequence: %v", err)
	}
}

func TestExplain_ResetsShowplanAfterStatementFailure(t *testing.T) {
	t.Parallel()
	p, mock := newTestEngine(t, testConfig())

	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML ON")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM nope")).
		WillReturnError(errors.New("Invalid object name 'nope'."))
	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML OFF")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	output := p.Explain(context.Background(), ExplainInput{SQL: "SELECT * FROM nope"})
	if output.Error != "Invalid object name 'nope'." {
		t.Fatalf("expected statement error, got %q", output.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("SHOWPLAN_XML OFF must run even when the statement fails: %v", err)
	}
}

func TestExplain_RejectsNonSelectWithoutTouchingDatabase(t *testing.T) {
	t.Parallel()
	p, mock := newTestEngine(t, testConfig())

	output := p.Explain(context.Background(), ExplainInput{SQL: "UPDATE users SET name = 'x'"})
	if output.Error != "only safe SELECT queries are allowed" {
		t.Fatalf("expected rejection message, got %q", output.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("rejected query must not reach the database: %v", err)
	}
}

func TestExplain_NoPlanDocument(t *testing.T) {
	t.Parallel()
	p, mock := newTestEngine(t, testConfig())

	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML ON")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"plan"}))
	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML OFF")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	output := p.Explain(context.Background(), ExplainInput{SQL: "SELECT 1"})
	if output.Error != "engine returned no plan document" {
		t.Fatalf("expected missing-plan error, got %q", output.Error)
	}
}

func TestExplain_UnparsablePlanFallsBack(t *testing.T) {
	t.Parallel()
	p, mock := newTestEngine(t, testConfig())

	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML ON")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).AddRow("<ShowPlanXML><unclosed>"))
	mock.ExpectExec(regexp.QuoteMeta("SET SHOWPLAN_XML OFF")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	output := p.Explain(context.Background(), ExplainInput{SQL: "SELECT 1"})
	if output.Error != "" {
		t.Fatalf("parse failure must not be a tool error, got %q", output.Error)
	}
	if output.Plan.SummaryText != "Failed to parse plan XML (but plan was generated)." {
		t.Fatalf("expected fallback summary, got %q", output.Plan.SummaryText)
	}
	if !strings.Contains(output.Plan.RawExcerpt, "<unclosed>") {
		t.Fatalf("expected raw excerpt preserved, got %q", output.Plan.RawExcerpt)
	}
}
