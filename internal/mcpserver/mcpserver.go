// Package mcpserver exposes the converter as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	web2md "github.com/alnah/go-web2md"
)

// ToolName is the name of the conversion tool.
const ToolName = "web2md_convert"

type convertArgs struct {
	URL string `json:"url"`
}

// convertResult mirrors the tolerant HTTP route.
type convertResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Markdown string `json:"markdown,omitempty"`
	Error    string `json:"error,omitempty"`
}

// New returns an MCP server with the conversion tool registered.
func New(runner web2md.Runner, version string, log zerolog.Logger) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "web2md", Version: version}, nil)
	Register(srv, runner, log)
	return srv
}

// Register adds the conversion tool to srv.
func Register(srv *mcp.Server, runner web2md.Runner, log zerolog.Logger) {
	tool := &mcp.Tool{
		Name: ToolName,
		Description: "Render a web page in a headless browser, OCR a full-page screenshot " +
			"and return the visible text as Markdown.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "description": "Absolute http(s) URL of the page"},
			},
			"required": []string{"url"},
		},
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args convertArgs
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
		}
		args.URL = strings.TrimSpace(args.URL)

		res := convertResult{URL: args.URL}
		request := web2md.Request{URL: args.URL}
		if err := request.Validate(); err != nil {
			res.Error = err.Error()
			return textResult(res)
		}

		out := runner.Run(ctx, request)
		if out.OK() {
			res.Success = true
			res.Markdown = out.Markdown
		} else {
			res.Error = out.Failure.Message
			log.Info().Str("url", args.URL).Str("kind", string(out.Failure.Kind)).Msg("tool conversion failed")
		}
		return textResult(res)
	})
}

// Run serves srv on stdin/stdout until ctx is done or the client disconnects.
func Run(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func textResult(v convertResult) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
