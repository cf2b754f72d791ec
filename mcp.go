package msmcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers all seven tools on the given MCP server.
func RegisterMCPTools(mcpServer *server.MCPServer, msMcp *SqlServerMcp) {
	// ListDatabases tool
	listDatabasesTool := mcp.NewTool("list_databases",
		mcp.WithDescription("List the configured named connections and which one is the default."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listDatabasesTool, msMcp.loggedToolHandler("list_databases", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return marshalToolResult(msMcp.ListDatabases(ctx))
	}))

	// ListTables tool
	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all base tables on a connection as schema-qualified names."),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listTablesTool, msMcp.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := msMcp.ListTables(ctx, ListTablesInput{Connection: req.GetString("connection", "")})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResult(output)
	}))

	// DescribeTable tool
	describeTableTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the columns of a table: name, data type, nullability, max length. Table must be schema-qualified (e.g. dbo.users)."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("The table to describe, in schema.table form"),
		),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(describeTableTool, msMcp.loggedToolHandler("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := msMcp.DescribeTable(ctx, DescribeTableInput{
			Table:      table,
			Connection: req.GetString("connection", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResult(output)
	}))

	// GetDatabaseSchema tool
	schemaTool := mcp.NewTool("get_database_schema",
		mcp.WithDescription("Return a full schema snapshot: every table with columns and primary keys, plus all foreign-key relationships."),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(schemaTool, msMcp.loggedToolHandler("get_database_schema", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := msMcp.GetDatabaseSchema(ctx, SchemaInput{Connection: req.GetString("connection", "")})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResult(output)
	}))

	// SearchSchema tool
	searchSchemaTool := mcp.NewTool("search_schema",
		mcp.WithDescription("Search table and column names for a keyword. Returns table matches first, then column matches."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The keyword to search for (matched as a substring)"),
		),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of matches to return (default 30, clamped to 1-200)"),
		),
	)

	mcpServer.AddTool(searchSchemaTool, msMcp.loggedToolHandler("search_schema", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := req.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword parameter is required"), nil
		}
		output, err := msMcp.SearchSchema(ctx, SearchSchemaInput{
			Keyword:    keyword,
			Connection: req.GetString("connection", ""),
			MaxResults: req.GetInt("max_results", DefaultSearchResults),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResult(output)
	}))

	// Query tool
	queryTool := mcp.NewTool("run_query",
		mcp.WithDescription("Execute a read-only SELECT query. A TOP row limit is enforced automatically. Returns rows as JSON."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
	)

	mcpServer.AddTool(queryTool, msMcp.loggedToolHandler("run_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		output := msMcp.Query(ctx, QueryInput{
			SQL:        sqlText,
			Connection: req.GetString("connection", ""),
		})
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return marshalToolResult(output)
	}))

	// Explain tool
	explainTool := mcp.NewTool("explain_query",
		mcp.WithDescription("Capture the estimated execution plan for a SELECT query without executing it, summarized with cost and warnings."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SELECT query to explain"),
		),
		mcp.WithString("connection",
			mcp.Description("The named connection to use (defaults to the configured default)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(explainTool, msMcp.loggedToolHandler("explain_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		output := msMcp.Explain(ctx, ExplainInput{
			SQL:        sqlText,
			Connection: req.GetString("connection", ""),
		})
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return marshalToolResult(output)
	}))
}

// marshalToolResult renders a tool output struct as a JSON text result.
func marshalToolResult(output interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal tool result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (p *SqlServerMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		p.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
