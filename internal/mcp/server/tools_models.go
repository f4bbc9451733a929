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
	"github.com/spf13/cast"
)

// registerModelTools registers Unity Catalog and model registry tools.
func (s *Server) registerModelTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_models",
		Description: "List registered models in Unity Catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog to list models from",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema to list models from",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of models to return",
				},
			},
		},
	}, s.handleListModels)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_model",
		Description: "Get details of a Unity Catalog model",
		InputSchema: modelNameSchema("Full model name (catalog.schema.model)"),
	}, s.handleGetModel)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_model",
		Description: "Create a new Unity Catalog model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the model to create",
				},
				"catalog": map[string]interface{}{
					"type":        "string",
					"description": "Catalog to create the model in",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema to create the model in",
				},
				"comment": map[string]interface{}{
					"type":        "string",
					"description": "Optional comment",
				},
			},
			Required: []string{"model_name", "catalog", "schema"},
		},
	}, s.handleCreateModel)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_model",
		Description: "Delete a Unity Catalog model",
		InputSchema: modelNameSchema("Full model name to delete (catalog.schema.model)"),
	}, s.handleDeleteModel)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_model_versions",
		Description: "List versions of a Unity Catalog model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Full model name (catalog.schema.model)",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of versions to return",
				},
			},
			Required: []string{"model_name"},
		},
	}, s.handleListModelVersions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_model_version",
		Description: "Get details of a specific model version",
		InputSchema: modelVersionSchema(),
	}, s.handleGetModelVersion)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "set_model_alias",
		Description: "Set an alias (e.g., champion) on a model version",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Full model name (catalog.schema.model)",
				},
				"alias": map[string]interface{}{
					"type":        "string",
					"description": "Alias name",
				},
				"version": map[string]interface{}{
					"type":        "integer",
					"description": "Version number the alias points at",
				},
			},
			Required: []string{"model_name", "alias", "version"},
		},
	}, s.handleSetModelAlias)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_model_alias",
		Description: "Remove an alias from a Unity Catalog model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Full model name (catalog.schema.model)",
				},
				"alias": map[string]interface{}{
					"type":        "string",
					"description": "Alias name to delete",
				},
			},
			Required: []string{"model_name", "alias"},
		},
	}, s.handleDeleteModelAlias)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_registry_models",
		Description: "List models in the workspace model registry",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of models to return",
				},
			},
		},
	}, s.handleListRegistryModels)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_latest_model_versions",
		Description: "Get latest registry model versions by stage",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the registry model",
				},
				"stages": map[string]interface{}{
					"type":        "array",
					"description": "Stages to get versions for (e.g., Production, Staging)",
					"items":       map[string]interface{}{"type": "string"},
				},
			},
			Required: []string{"model_name"},
		},
	}, s.handleGetLatestModelVersions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "transition_model_stage",
		Description: "Transition a registry model version to a different stage",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"model_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the registry model",
				},
				"version": map[string]interface{}{
					"type":        "integer",
					"description": "Version number",
				},
				"stage": map[string]interface{}{
					"type":        "string",
					"description": "Target stage: Production, Staging, or Archived",
				},
				"archive_existing": map[string]interface{}{
					"type":        "boolean",
					"description": "Archive existing versions in the target stage (default: false)",
					"default":     false,
				},
			},
			Required: []string{"model_name", "version", "stage"},
		},
	}, s.handleTransitionModelStage)
}

func modelNameSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"model_name": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"model_name"},
	}
}

func modelVersionSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"model_name": map[string]interface{}{
				"type":        "string",
				"description": "Full model name (catalog.schema.model)",
			},
			"version": map[string]interface{}{
				"type":        "integer",
				"description": "Version number",
			},
		},
		Required: []string{"model_name", "version"},
	}
}

func (s *Server) handleListModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_models", false)
	if denied != nil {
		return denied, nil
	}

	catalog := request.GetString("catalog", "")
	schema := request.GetString("schema", "")
	maxResults := request.GetInt("max_results", 0)

	result, err := s.models.List(ctx, catalog, schema, maxResults)
	if err != nil {
		return s.toolError("list_models", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_model", false)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}

	result, err := s.models.Get(ctx, modelName)
	if err != nil {
		return s.toolError("get_model", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_model", true)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	catalog, err := request.RequireString("catalog")
	if err != nil {
		return errorResponse("Missing or invalid 'catalog' argument"), nil
	}
	schema, err := request.RequireString("schema")
	if err != nil {
		return errorResponse("Missing or invalid 'schema' argument"), nil
	}
	comment := request.GetString("comment", "")

	result, err := s.models.Create(ctx, modelName, catalog, schema, comment)
	if err != nil {
		return s.toolError("create_model", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDeleteModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("delete_model", true)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}

	result, err := s.models.Delete(ctx, modelName)
	if err != nil {
		return s.toolError("delete_model", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListModelVersions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_model_versions", false)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	maxResults := request.GetInt("max_results", 0)

	result, err := s.models.ListVersions(ctx, modelName, maxResults)
	if err != nil {
		return s.toolError("list_model_versions", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetModelVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_model_version", false)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	version := request.GetInt("version", 0)
	if version <= 0 {
		return errorResponse("Missing or invalid 'version' argument"), nil
	}

	result, err := s.models.GetVersion(ctx, modelName, version)
	if err != nil {
		return s.toolError("get_model_version", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleSetModelAlias(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("set_model_alias", true)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	alias, err := request.RequireString("alias")
	if err != nil {
		return errorResponse("Missing or invalid 'alias' argument"), nil
	}
	version := request.GetInt("version", 0)
	if version <= 0 {
		return errorResponse("Missing or invalid 'version' argument"), nil
	}

	result, err := s.models.SetAlias(ctx, modelName, alias, version)
	if err != nil {
		return s.toolError("set_model_alias", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDeleteModelAlias(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("delete_model_alias", true)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	alias, err := request.RequireString("alias")
	if err != nil {
		return errorResponse("Missing or invalid 'alias' argument"), nil
	}

	result, err := s.models.DeleteAlias(ctx, modelName, alias)
	if err != nil {
		return s.toolError("delete_model_alias", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListRegistryModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_registry_models", false)
	if denied != nil {
		return denied, nil
	}

	maxResults := request.GetInt("max_results", 0)

	result, err := s.models.ListRegistryModels(ctx, maxResults)
	if err != nil {
		return s.toolError("list_registry_models", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetLatestModelVersions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_latest_model_versions", false)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	var stages []string
	if raw, ok := request.GetArguments()["stages"].([]any); ok && len(raw) > 0 {
		stages = cast.ToStringSlice(raw)
	}

	result, err := s.models.LatestVersions(ctx, modelName, stages)
	if err != nil {
		return s.toolError("get_latest_model_versions", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleTransitionModelStage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("transition_model_stage", true)
	if denied != nil {
		return denied, nil
	}

	modelName, err := request.RequireString("model_name")
	if err != nil {
		return errorResponse("Missing or invalid 'model_name' argument"), nil
	}
	version := request.GetInt("version", 0)
	if version <= 0 {
		return errorResponse("Missing or invalid 'version' argument"), nil
	}
	stage, err := request.RequireString("stage")
	if err != nil {
		return errorResponse("Missing or invalid 'stage' argument"), nil
	}
	archiveExisting := request.GetBool("archive_existing", false)

	result, err := s.models.TransitionStage(ctx, modelName, version, stage, archiveExisting)
	if err != nil {
		return s.toolError("transition_model_stage", request, err), nil
	}
	return jsonResponse(result), nil
}
