package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/utils"
)

// mockAnalyzer records the request it was given.
type mockAnalyzer struct {
	got  promptinspector.Request
	resp *promptinspector.Response
	err  error
}

func (m *mockAnalyzer) Analyze(_ context.Context, req promptinspector.Request) (*promptinspector.Response, error) {
	m.got = req
	return m.resp, m.err
}

func newInspector(t *testing.T) *promptinspector.Inspector {
	t.Helper()
	in, err := promptinspector.New(promptinspector.NewConfig(), promptinspector.WithLogger(utils.NewNopLogger()))
	require.NoError(t, err)
	return in
}

func TestNew(t *testing.T) {
	t.Run("nil analyzer returns error", func(t *testing.T) {
		s, err := New(nil, "test", nil)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrMissingAnalyzer)
	})

	t.Run("valid analyzer creates server", func(t *testing.T) {
		s, err := New(&mockAnalyzer{}, "test", nil)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestHandleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the input through", func(t *testing.T) {
		m := &mockAnalyzer{resp: &promptinspector.Response{OverallScore: 2.5, OptimizedPrompt: "better"}}
		s, err := New(m, "test", nil)
		require.NoError(t, err)

		_, out, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Prompt: "write something", TargetModel: "claude", Detailed: true})
		require.NoError(t, err)
		assert.Equal(t, promptinspector.Request{Text: "write something", TargetModel: "claude", Detailed: true}, m.got)
		assert.Equal(t, 2.5, out.OverallScore)
		assert.Equal(t, "better", out.OptimizedPrompt)
	})

	t.Run("returns analysis errors", func(t *testing.T) {
		logger := utils.NewMockLogger()
		m := &mockAnalyzer{err: errors.New("queue full")}
		s, err := New(m, "test", logger)
		require.NoError(t, err)

		_, _, err = s.handleAnalyze(ctx, nil, AnalyzeInput{Prompt: "x"})
		require.Error(t, err)
		assert.Equal(t, "general", m.got.TargetModel)
		assert.Contains(t, err.Error(), "queue full")
		assert.Contains(t, logger.Warnings(), "analyze_prompt failed")
	})

	t.Run("runs a real analysis", func(t *testing.T) {
		s, err := New(newInspector(t), "test", nil)
		require.NoError(t, err)

		_, out, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Prompt: "write something"})
		require.NoError(t, err)
		assert.Len(t, out.Scores, 10)
		assert.NotEmpty(t, out.Suggestions)
	})
}

func TestHandleListDimensions(t *testing.T) {
	s, err := New(&mockAnalyzer{}, "test", nil)
	require.NoError(t, err)

	_, out, err := s.handleListDimensions(context.Background(), nil, ListDimensionsInput{})
	require.NoError(t, err)
	require.Len(t, out.Dimensions, 10)
	assert.Equal(t, "clarity", out.Dimensions[0].ID)
}

func TestToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	s, err := New(newInspector(t), "test", nil)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_prompt", "list_dimensions"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_prompt",
		Arguments: map[string]any{"prompt": "write something", "target_model": "gpt-4"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.NotNil(t, res.StructuredContent)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_prompt",
		Arguments: map[string]any{"prompt": "   "},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError, "validation failures are tool errors")
}
