// Package mcp exposes the question answering operations as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/services"
	"agent-qa/backend/pkg/models"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// QA is the subset of the service layer the tools call.
type QA interface {
	Answer(ctx context.Context, questionID, agentID string) (*models.Answer, error)
	Ask(ctx context.Context, userID, content string) (*services.AskResult, error)
}

// Server wraps an MCP server whose tools drive the QA workflow.
type Server struct {
	mcpServer *server.MCPServer
	qa        QA
	agents    repository.AgentStore
}

// NewServer creates a Server and registers its tools.
func NewServer(qa QA, agents repository.AgentStore) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Agent QA",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		qa:     qa,
		agents: agents,
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
			"ask_question",
			mcp.WithDescription("Submit a question; an agent is selected and the answer is produced in the background"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The ID of the asking user")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The question text")),
		),
		s.handleAskQuestion,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"answer_question",
			mcp.WithDescription("Run the answer workflow for a stored question and return the final answer"),
			mcp.WithString("question_id", mcp.Required(), mcp.Description("The ID of the question")),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("The ID of the answering agent")),
		),
		s.handleAnswerQuestion,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_agents",
			mcp.WithDescription("List the available agents and their specializations"),
		),
		s.handleListAgents,
	)
}

func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.qa.Ask(ctx, userID, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to ask question: %v", err)), nil
	}
	return jsonResult(res)
}

func (s *Server) handleAnswerQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	questionID, err := request.RequireString("question_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.qa.Answer(ctx, questionID, agentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to answer question: %v", err)), nil
	}
	return jsonResult(answer)
}

func (s *Server) handleListAgents(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agents, err := s.agents.ListAgents(ctx, repository.AgentOrderByName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list agents: %v", err)), nil
	}
	return jsonResult(agents)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MountHTTPHandlers serves the MCP server over SSE under /mcp.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
