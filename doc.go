// Package msmcp provides safe, read-only Microsoft SQL Server access for AI
// agents through the Model Context Protocol (MCP).
//
// It exposes seven tools — ListDatabases, ListTables, DescribeTable,
// GetDatabaseSchema, SearchSchema, Query, and Explain — over a set of named,
// statically configured connections. Query execution is gated by a lexical
// SELECT-only classifier, bounded by an automatically enforced TOP row
// ceiling, and followed by optional result sanitization and truncation.
// Explain captures the engine's estimated showplan XML in a scoped
// SHOWPLAN_XML session and reduces it to a compact, warning-annotated
// summary.
//
// # Library Usage
//
//	p, err := msmcp.New(ctx, msmcp.Config{
//		Connections: map[string]msmcp.ConnectionConfig{
//			"primary": {Host: "db.internal", Port: 1433, Database: "crm",
//				User: "agent", Password: os.Getenv("MSMCP_PASSWORD")},
//		},
//		DefaultConnection: "primary",
//		Pool:              msmcp.PoolConfig{MaxOpenConns: 5},
//		Query: msmcp.QueryConfig{
//			DefaultRowLimit:       100,
//			MaxRowLimit:           1000,
//			DefaultTimeoutSeconds: 30,
//			SchemaTimeoutSeconds:  10,
//		},
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close(ctx)
//
//	// Use directly
//	output := p.Query(ctx, msmcp.QueryInput{SQL: "SELECT name FROM dbo.users"})
//
//	// Or register as MCP tools
//	msmcp.RegisterMCPTools(mcpServer, p)
//
// The classifier is a word-boundary keyword gate, not a SQL parser. It
// rejects anything that does not begin with SELECT and anything containing a
// denylisted write/DDL keyword as a whole word. This blocks the obvious
// attack surface an agent could reach but is not a substitute for running
// against a minimally privileged database login.
package msmcp
