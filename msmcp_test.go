package msmcp

import (
	"context"
	"strings"
	"testing"
)

func TestListDatabases_SortedWithDefault(t *testing.T) {
	t.Parallel()
	p, _ := newTestEngine(t, testConfig())

	output := p.ListDatabases(context.Background())
	if len(output.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(output.Connections))
	}
	if output.Connections[0] != "primary" || output.Connections[1] != "reporting" {
		t.Fatalf("expected sorted connection names, got %v", output.Connections)
	}
	if output.Default != "primary" {
		t.Fatalf("expected default 'primary', got %q", output.Default)
	}
}

func TestResolveConnection_Default(t *testing.T) {
	t.Parallel()
	p, _ := newTestEngine(t, testConfig())

	name, db, err := p.resolveConnection("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "primary" {
		t.Fatalf("expected default connection 'primary', got %q", name)
	}
	if db == nil {
		t.Fatal("expected non-nil pool")
	}
}

func TestResolveConnection_UnknownListsValidNames(t *testing.T) {
	t.Parallel()
	p, _ := newTestEngine(t, testConfig())

	_, _, err := p.resolveConnection("warehouse")
	if err == nil {
		t.Fatal("expected error for unknown connection")
	}
	msg := err.Error()
	if !strings.Contains(msg, `unknown connection "warehouse"`) {
		t.Fatalf("expected unknown-connection message, got %q", msg)
	}
	if !strings.Contains(msg, "primary, reporting") {
		t.Fatalf("expected valid names enumerated, got %q", msg)
	}
}

func TestBuildConnString_Fields(t *testing.T) {
	t.Parallel()
	got := BuildConnString(ConnectionConfig{
		Host: "db.internal", Port: 1433, Database: "crm", User: "agent", Password: "s3cret",
	})
	want := "server=db.internal;port=1433;database=crm;user id=agent;password=s3cret"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildConnString_RawOverride(t *testing.T) {
	t.Parallel()
	got := BuildConnString(ConnectionConfig{
		Host:       "ignored",
		ConnString: "server=x;database=y;encrypt=true",
	})
	if got != "server=x;database=y;encrypt=true" {
		t.Fatalf("expected raw conn_string to win, got %q", got)
	}
}

// --- Config validation ---

func assertPanics(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", contains)
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, contains) {
			t.Fatalf("expected panic containing %q, got %v", contains, r)
		}
	}()
	fn()
}

func TestValidateConfig_RequiresConnections(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.Connections = nil
	assertPanics(t, "at least one connection", func() { validateConfig(&config) })
}

func TestValidateConfig_UnknownDefaultConnection(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.DefaultConnection = "nope"
	assertPanics(t, "default_connection", func() { validateConfig(&config) })
}

func TestValidateConfig_DefaultRequiredWithMultipleConnections(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.DefaultConnection = ""
	assertPanics(t, "default_connection is required", func() { validateConfig(&config) })
}

func TestValidateConfig_RowLimitInversion(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.Query.DefaultRowLimit = 500
	config.Query.MaxRowLimit = 100
	assertPanics(t, "default_row_limit", func() { validateConfig(&config) })
}

func TestValidateConfig_AppliesRowLimitDefaults(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.Query.DefaultRowLimit = 0
	config.Query.MaxRowLimit = 0
	validateConfig(&config)
	if config.Query.DefaultRowLimit != 100 {
		t.Fatalf("expected default row limit 100, got %d", config.Query.DefaultRowLimit)
	}
	if config.Query.MaxRowLimit != 1000 {
		t.Fatalf("expected max row limit 1000, got %d", config.Query.MaxRowLimit)
	}
}

func TestValidateConfig_SingleConnectionImplicitDefault(t *testing.T) {
	t.Parallel()
	config := testConfig()
	delete(config.Connections, "reporting")
	config.DefaultConnection = ""
	validateConfig(&config)

	p, _ := newTestEngine(t, config)
	if p.defaultName != "primary" {
		t.Fatalf("expected implicit default 'primary', got %q", p.defaultName)
	}
}
