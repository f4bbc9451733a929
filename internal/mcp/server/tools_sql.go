// Copyright 2026 the dbxmcp authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dbxmcp/dbxmcp/internal/cli"
	"github.com/dbxmcp/dbxmcp/internal/databricks"
)

// registerSQLTools registers SQL warehouse and query tools.
func (s *Server) registerSQLTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_warehouses",
		Description: "List SQL warehouses in the workspace",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListWarehouses)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_warehouse",
		Description: "Get details of a specific SQL warehouse",
		InputSchema: warehouseIDSchema("ID of the warehouse to get"),
	}, s.handleGetWarehouse)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "start_warehouse",
		Description: "Start a stopped SQL warehouse",
		InputSchema: warehouseIDSchema("ID of the warehouse to start"),
	}, s.handleStartWarehouse)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_warehouse",
		Description: "Stop a running SQL warehouse",
		InputSchema: warehouseIDSchema("ID of the warehouse to stop"),
	}, s.handleStopWarehouse)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_sql",
		Description: "Execute a SQL statement against a warehouse",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL statement to execute",
				},
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse to run the statement on",
				},
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog context for the statement",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema context for the statement",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Statement timeout in seconds",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleExecuteSQL)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_schemas",
		Description: "List schemas, optionally scoped to a catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog to list schemas from",
				},
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse to use",
				},
			},
		},
	}, s.handleListSchemas)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_tables",
		Description: "List tables in a schema",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema to list tables from",
				},
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog containing the schema",
				},
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse to use",
				},
			},
		},
	}, s.handleListTables)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_table",
		Description: "Describe a table's column structure",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the table to describe",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema containing the table",
				},
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog containing the table",
				},
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse to use",
				},
			},
			Required: []string{"table_name"},
		},
	}, s.handleDescribeTable)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_catalogs",
		Description: "List catalogs visible to the current user",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse to use",
				},
			},
		},
	}, s.handleListCatalogs)
}

func warehouseIDSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"warehouse_id": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"warehouse_id"},
	}
}

func (s *Server) handleListWarehouses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_warehouses", false)
	if denied != nil {
		return denied, nil
	}

	result, err := s.sql.ListWarehouses(ctx)
	if err != nil {
		return s.toolError("list_warehouses", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetWarehouse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.warehouseOp(ctx, request, "get_warehouse", false, s.sql.GetWarehouse)
}

func (s *Server) handleStartWarehouse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.warehouseOp(ctx, request, "start_warehouse", true, s.sql.StartWarehouse)
}

func (s *Server) handleStopWarehouse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.warehouseOp(ctx, request, "stop_warehouse", true, s.sql.StopWarehouse)
}

func (s *Server) warehouseOp(ctx context.Context, request mcp.CallToolRequest, tool string, mutating bool, op func(context.Context, string) (cli.Payload, error)) (*mcp.CallToolResult, error) {
	_, denied := s.begin(tool, mutating)
	if denied != nil {
		return denied, nil
	}

	warehouseID, err := request.RequireString("warehouse_id")
	if err != nil {
		return errorResponse("Missing or invalid 'warehouse_id' argument"), nil
	}

	result, err := op(ctx, warehouseID)
	if err != nil {
		return s.toolError(tool, request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleExecuteSQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("execute_sql", true)
	if denied != nil {
		return denied, nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return errorResponse("Missing or invalid 'query' argument"), nil
	}

	opts := databricks.QueryOptions{
		WarehouseID: request.GetString("warehouse_id", ""),
		Catalog:     request.GetString("catalog", ""),
		Schema:      request.GetString("schema", ""),
		Timeout:     request.GetInt("timeout", 0),
	}

	result, err := s.sql.ExecuteQuery(ctx, query, opts)
	if err != nil {
		return s.toolError("execute_sql", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListSchemas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_schemas", false)
	if denied != nil {
		return denied, nil
	}

	catalog := request.GetString("catalog", "")
	warehouseID := request.GetString("warehouse_id", "")

	result, err := s.sql.ListSchemas(ctx, catalog, warehouseID)
	if err != nil {
		return s.toolError("list_schemas", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_tables", false)
	if denied != nil {
		return denied, nil
	}

	schema := request.GetString("schema", "")
	catalog := request.GetString("catalog", "")
	warehouseID := request.GetString("warehouse_id", "")

	result, err := s.sql.ListTables(ctx, schema, catalog, warehouseID)
	if err != nil {
		return s.toolError("list_tables", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("describe_table", false)
	if denied != nil {
		return denied, nil
	}

	tableName, err := request.RequireString("table_name")
	if err != nil {
		return errorResponse("Missing or invalid 'table_name' argument"), nil
	}
	schema := request.GetString("schema", "")
	catalog := request.GetString("catalog", "")
	warehouseID := request.GetString("warehouse_id", "")

	result, err := s.sql.DescribeTable(ctx, tableName, schema, catalog, warehouseID)
	if err != nil {
		return s.toolError("describe_table", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListCatalogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_catalogs", false)
	if denied != nil {
		return denied, nil
	}

	warehouseID := request.GetString("warehouse_id", "")

	result, err := s.sql.ListCatalogs(ctx, warehouseID)
	if err != nil {
		return s.toolError("list_catalogs", request, err), nil
	}
	return jsonResponse(result), nil
}
