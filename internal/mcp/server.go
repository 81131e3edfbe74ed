// Package mcp exposes the onboarding operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"onboarding-platform/backend/internal/auth"
	"onboarding-platform/backend/internal/services"
	"onboarding-platform/backend/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	svc       services.Onboarding
}

func NewServer(svc services.Onboarding) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Onboarding Templates",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		svc: svc,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_task_templates",
			mcp.WithDescription("List every task in the onboarding task library"),
		),
		s.handleListTaskTemplates,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_task_template",
			mcp.WithDescription("Add a task to the onboarding task library"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Short title of the task")),
			mcp.WithString("description", mcp.Description("Optional longer description")),
		),
		s.handleCreateTaskTemplate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_templates",
			mcp.WithDescription("List onboarding templates with their ordered tasks"),
		),
		s.handleListTemplates,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_template_tasks",
			mcp.WithDescription("Get the ordered task list of an onboarding template"),
			mcp.WithNumber("template_id", mcp.Required(), mcp.Description("The ID of the onboarding template")),
		),
		s.handleGetTemplateTasks,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_template_tasks",
			mcp.WithDescription("Replace the whole task list of an onboarding template. The order of ids defines the sequence."),
			mcp.WithNumber("template_id", mcp.Required(), mcp.Description("The ID of the onboarding template")),
			mcp.WithArray("task_template_ids",
				mcp.Required(),
				mcp.Description("Task library ids in the desired order"),
				mcp.Items(map[string]any{"type": "integer"}),
			),
		),
		s.handleSetTemplateTasks,
	)
}

func (s *Server) handleListTaskTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID, ok := auth.TenantID(ctx)
	if !ok {
		return mcp.NewToolResultError("Unauthenticated: no tenant in context"), nil
	}

	tasks, err := s.svc.ListTaskTemplates(ctx, tenantID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list task templates: %v", err)), nil
	}
	return jsonResult(tasks)
}

func (s *Server) handleCreateTaskTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID, ok := auth.TenantID(ctx)
	if !ok {
		return mcp.NewToolResultError("Unauthenticated: no tenant in context"), nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("Missing required parameter: title"), nil
	}
	description, _ := args["description"].(string)

	task, err := s.svc.CreateTaskTemplate(ctx, tenantID, models.TaskTemplateInput{Title: title, Description: description})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create task template: %v", err)), nil
	}
	return jsonResult(task)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID, ok := auth.TenantID(ctx)
	if !ok {
		return mcp.NewToolResultError("Unauthenticated: no tenant in context"), nil
	}

	templates, err := s.svc.ListTemplates(ctx, tenantID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list templates: %v", err)), nil
	}
	return jsonResult(templates)
}

func (s *Server) handleGetTemplateTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID, ok := auth.TenantID(ctx)
	if !ok {
		return mcp.NewToolResultError("Unauthenticated: no tenant in context"), nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	templateID, ok := positiveID(args["template_id"])
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: template_id"), nil
	}

	tasks, err := s.svc.GetTemplateTasks(ctx, tenantID, templateID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get template tasks: %v", err)), nil
	}
	return jsonResult(tasks)
}

func (s *Server) handleSetTemplateTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID, ok := auth.TenantID(ctx)
	if !ok {
		return mcp.NewToolResultError("Unauthenticated: no tenant in context"), nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	templateID, ok := positiveID(args["template_id"])
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: template_id"), nil
	}
	raw, ok := args["task_template_ids"].([]interface{})
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: task_template_ids"), nil
	}

	tasks := make([]models.TemplateTask, 0, len(raw))
	for i, v := range raw {
		id, ok := positiveID(v)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("task_template_ids[%d] is not a valid id", i)), nil
		}
		tasks = append(tasks, models.TemplateTask{TaskTemplateID: id, Sequence: i + 1})
	}

	stored, err := s.svc.ReplaceTemplateTasks(ctx, tenantID, templateID, tasks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to set template tasks: %v", err)), nil
	}
	return jsonResult(stored)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// positiveID accepts JSON numbers that hold a whole, positive value.
func positiveID(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f < 1 || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// tenantContext carries the tenant resolved by the auth middleware into tool calls.
func tenantContext(ctx context.Context, r *http.Request) context.Context {
	if id, ok := auth.TenantID(r.Context()); ok {
		return auth.WithTenant(ctx, id)
	}
	return ctx
}

// MountHTTPHandlers serves the streamable HTTP transport on /mcp and the SSE
// transport on /mcp/sse and /mcp/message.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer,
		server.WithStaticBasePath("/mcp"),
		server.WithSSEContextFunc(tenantContext),
	)
	streamServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(tenantContext),
	)

	mux.Handle("/mcp", streamServer)
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
