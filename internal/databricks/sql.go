package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// SQL manages SQL warehouses and executes statements against them. The
// catalog and schema browsing operations are built from SHOW and DESCRIBE
// statements rather than dedicated CLI subcommands.
type SQL struct {
	exec   *cli.Executor
	logger *slog.Logger
}

// NewSQL creates a SQL service over exec.
func NewSQL(exec *cli.Executor, logger *slog.Logger) *SQL {
	return &SQL{exec: exec, logger: logger}
}

// ListWarehouses returns all SQL warehouses in the workspace.
func (s *SQL) ListWarehouses(ctx context.Context) (cli.Payload, error) {
	s.logger.Info("listing sql warehouses")
	return s.exec.ExecuteWithRetry(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"sql", "warehouses", "list"}),
	}, cli.DefaultRetryOptions())
}

// GetWarehouse returns details for one warehouse.
func (s *SQL) GetWarehouse(ctx context.Context, warehouseID string) (cli.Payload, error) {
	return s.warehouseOp(ctx, "get", warehouseID)
}

// StartWarehouse starts a stopped warehouse.
func (s *SQL) StartWarehouse(ctx context.Context, warehouseID string) (cli.Payload, error) {
	return s.warehouseOp(ctx, "start", warehouseID)
}

// StopWarehouse stops a running warehouse.
func (s *SQL) StopWarehouse(ctx context.Context, warehouseID string) (cli.Payload, error) {
	return s.warehouseOp(ctx, "stop", warehouseID)
}

func (s *SQL) warehouseOp(ctx context.Context, verb, warehouseID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"warehouse_id": warehouseID}, []string{"warehouse_id"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("warehouse operation",
		slog.String("operation", verb),
		slog.String("warehouse_id", warehouseID))
	return s.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"sql", "warehouses", verb, warehouseID}),
	})
}

// QueryOptions narrows where and how a statement runs. Zero values are
// omitted from the command line.
type QueryOptions struct {
	WarehouseID string
	Catalog     string
	Schema      string
	Timeout     int
}

func (o QueryOptions) args() []string {
	var args []string
	if o.WarehouseID != "" {
		args = append(args, "--warehouse-id", o.WarehouseID)
	}
	if o.Catalog != "" {
		args = append(args, "--catalog", o.Catalog)
	}
	if o.Schema != "" {
		args = append(args, "--schema", o.Schema)
	}
	if o.Timeout > 0 {
		args = append(args, "--timeout", strconv.Itoa(o.Timeout))
	}
	return args
}

// ExecuteQuery runs one SQL statement.
func (s *SQL) ExecuteQuery(ctx context.Context, query string, opts QueryOptions) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"query": query}, []string{"query"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("executing sql query")

	args := append([]string{"sql", "query"}, opts.args()...)
	args = append(args, "--query", query)
	return s.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// ExecuteQueryFile runs the SQL statement stored in a local file.
func (s *SQL) ExecuteQueryFile(ctx context.Context, filePath string, opts QueryOptions) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"file_path": filePath}, []string{"file_path"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("executing sql query from file", slog.String("file", filePath))

	args := append([]string{"sql", "query"}, opts.args()...)
	args = append(args, "--file", filePath)
	return s.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// ListSchemas lists schemas, optionally scoped to a catalog.
func (s *SQL) ListSchemas(ctx context.Context, catalog, warehouseID string) (cli.Payload, error) {
	s.logger.Info("listing schemas")

	query := "SHOW SCHEMAS"
	if catalog != "" {
		query += " IN " + catalog
	}
	return s.ExecuteQuery(ctx, query, QueryOptions{WarehouseID: warehouseID})
}

// ListTables lists tables in a schema. When only a catalog is given the
// statement scopes to the catalog instead.
func (s *SQL) ListTables(ctx context.Context, schema, catalog, warehouseID string) (cli.Payload, error) {
	s.logger.Info("listing tables", slog.String("schema", schema))

	query := "SHOW TABLES"
	switch {
	case schema != "":
		query += " IN " + schema
	case catalog != "":
		query += " IN " + catalog
	}
	return s.ExecuteQuery(ctx, query, QueryOptions{
		WarehouseID: warehouseID,
		Catalog:     catalog,
		Schema:      schema,
	})
}

// DescribeTable returns a table's column structure. The table name is
// qualified with schema and catalog when they are provided.
func (s *SQL) DescribeTable(ctx context.Context, tableName, schema, catalog, warehouseID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"table_name": tableName}, []string{"table_name"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("describing table", slog.String("table", tableName))

	full := tableName
	switch {
	case schema != "" && catalog != "":
		full = fmt.Sprintf("%s.%s.%s", catalog, schema, tableName)
	case schema != "":
		full = fmt.Sprintf("%s.%s", schema, tableName)
	}
	return s.ExecuteQuery(ctx, "DESCRIBE TABLE "+full, QueryOptions{
		WarehouseID: warehouseID,
		Catalog:     catalog,
		Schema:      schema,
	})
}

// CreateSchema creates a schema if it does not already exist.
func (s *SQL) CreateSchema(ctx context.Context, schemaName, catalog, comment, warehouseID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"database_name": schemaName}, []string{"database_name"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("creating schema", slog.String("schema", schemaName))

	query := "CREATE SCHEMA IF NOT EXISTS " + schemaName
	if comment != "" {
		query += fmt.Sprintf(" COMMENT '%s'", comment)
	}
	return s.ExecuteQuery(ctx, query, QueryOptions{
		WarehouseID: warehouseID,
		Catalog:     catalog,
	})
}

// DropSchema drops a schema. Cascade removes contained objects; otherwise
// the drop is restricted to empty schemas.
func (s *SQL) DropSchema(ctx context.Context, schemaName, catalog string, cascade bool, warehouseID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"database_name": schemaName}, []string{"database_name"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("dropping schema", slog.String("schema", schemaName))

	query := "DROP SCHEMA IF EXISTS " + schemaName
	if cascade {
		query += " CASCADE"
	} else {
		query += " RESTRICT"
	}
	return s.ExecuteQuery(ctx, query, QueryOptions{
		WarehouseID: warehouseID,
		Catalog:     catalog,
	})
}

// ListCatalogs lists the catalogs visible to the current user.
func (s *SQL) ListCatalogs(ctx context.Context, warehouseID string) (cli.Payload, error) {
	s.logger.Info("listing catalogs")
	return s.ExecuteQuery(ctx, "SHOW CATALOGS", QueryOptions{WarehouseID: warehouseID})
}

// CurrentCatalog returns the session's current catalog.
func (s *SQL) CurrentCatalog(ctx context.Context, warehouseID string) (cli.Payload, error) {
	s.logger.Info("getting current catalog")
	return s.ExecuteQuery(ctx, "SELECT current_catalog()", QueryOptions{WarehouseID: warehouseID})
}

// UseCatalog switches the session to a different catalog.
func (s *SQL) UseCatalog(ctx context.Context, catalogName, warehouseID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"catalog_name": catalogName}, []string{"catalog_name"}); err != nil {
		return cli.Payload{}, err
	}
	s.logger.Info("using catalog", slog.String("catalog", catalogName))
	return s.ExecuteQuery(ctx, "USE CATALOG "+catalogName, QueryOptions{WarehouseID: warehouseID})
}
