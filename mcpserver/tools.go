package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/refine"
)

// AnalyzeInput is the input schema of analyze_prompt.
type AnalyzeInput struct {
	Prompt      string `json:"prompt" jsonschema:"the prompt text to evaluate"`
	TargetModel string `json:"target_model,omitempty" jsonschema:"model the prompt is written for, e.g. gpt-4o or claude (default general)"`
	Detailed    bool   `json:"detailed,omitempty" jsonschema:"also ask an LLM provider for a critique, using API keys from the environment"`
}

// ListDimensionsInput takes no arguments.
type ListDimensionsInput struct{}

type ListDimensionsOutput struct {
	Dimensions []DimensionOutput `json:"dimensions"`
}

type DimensionOutput struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_prompt",
		Description: "Score a prompt on ten quality dimensions and return suggestions plus an improved version",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_dimensions",
		Description: "List the quality dimensions prompts are scored on",
	}, s.handleListDimensions)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, promptinspector.Response, error) {
	target := input.TargetModel
	if target == "" {
		target = refine.DefaultTarget
	}
	resp, err := s.analyzer.Analyze(ctx, promptinspector.Request{
		Text:        input.Prompt,
		TargetModel: target,
		Detailed:    input.Detailed,
	})
	if err != nil {
		s.logger.Warn("analyze_prompt failed", "error", err)
		return nil, promptinspector.Response{}, err
	}
	return nil, *resp, nil
}

func (s *Server) handleListDimensions(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListDimensionsInput,
) (*mcp.CallToolResult, ListDimensionsOutput, error) {
	defs := dimension.List()
	out := ListDimensionsOutput{Dimensions: make([]DimensionOutput, len(defs))}
	for i, d := range defs {
		out.Dimensions[i] = DimensionOutput{ID: d.ID, Label: d.Label, Description: d.Description, Weight: d.Weight}
	}
	return nil, out, nil
}
