package toolset

import (
	"context"

	"github.com/viant/gosh"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

// TerminalInput carries shell commands to execute in sequence.
type TerminalInput struct {
	Commands []string `json:"commands" description:"commands executed left to right, chained with &&"`
}

type terminalTool struct {
	service *gosh.Service
}

// RegisterTerminalTool adds a terminal tool executing commands with the
// supplied shell service.
func RegisterTerminalTool(set *tool.Toolset, service *gosh.Service) error {
	terminal := &terminalTool{service: service}
	return tool.RegisterTool[TerminalInput](set, "terminal", "Executes shell commands", terminal.run)
}

func (t *terminalTool) run(ctx context.Context, input *TerminalInput) (*schema.CallToolResult, error) {
	cmdString := ""
	if len(input.Commands) > 0 {
		cmdString = input.Commands[0]
		for i := 1; i < len(input.Commands); i++ {
			cmdString += " && " + input.Commands[i]
		}
	}
	output, code, err := t.service.Run(ctx, cmdString)
	if err != nil {
		return nil, err
	}
	result := textResult(output)
	if code != 0 {
		isError := true
		result.IsError = &isError
	}
	return result, nil
}
