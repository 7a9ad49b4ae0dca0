// Package toolset provides ready to use in-process tools for the bridge.
package toolset

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

type (
	// FsConfig scopes file tools to a base location.
	FsConfig struct {
		BaseURL string
		Options []storage.Option
	}

	fsTools struct {
		config *FsConfig
		fs     afs.Service
	}

	// ListFilesInput selects a location relative to the base URL.
	ListFilesInput struct {
		Location string `json:"location,omitempty" description:"location relative to the base URL, empty for the base itself"`
	}

	// ReadFileInput identifies a file relative to the base URL.
	ReadFileInput struct {
		Location string `json:"location" description:"file location relative to the base URL"`
	}
)

// RegisterFsTools adds list_files and read_file tools backed by the abstract
// file system, so the same tools work over file, s3, gs and mem URLs.
func RegisterFsTools(set *tool.Toolset, config *FsConfig) error {
	tools := &fsTools{config: config, fs: afs.New()}
	if err := tool.RegisterTool[ListFilesInput](set, "list_files", "Lists files at a location", tools.listFiles); err != nil {
		return err
	}
	return tool.RegisterTool[ReadFileInput](set, "read_file", "Reads a text file", tools.readFile)
}

func trimScheme(URL string) string {
	if index := strings.Index(URL, "://"); index != -1 {
		URL = URL[index+len("://"):]
	}
	return strings.TrimSuffix(URL, "/")
}

func (t *fsTools) location(relative string) string {
	base := strings.TrimSuffix(t.config.BaseURL, "/")
	if relative == "" {
		return base
	}
	return base + "/" + strings.TrimPrefix(relative, "/")
}

func (t *fsTools) listFiles(ctx context.Context, input *ListFilesInput) (*schema.CallToolResult, error) {
	location := t.location(input.Location)
	objects, err := t.fs.List(ctx, location, t.config.Options...)
	if err != nil {
		return nil, err
	}
	builder := strings.Builder{}
	for _, object := range objects {
		name := object.Name()
		if name == "" || name == "." {
			continue
		}
		// List reports the traversed location itself, skip it
		if object.IsDir() && trimScheme(object.URL()) == trimScheme(location) {
			continue
		}
		if object.IsDir() {
			name += "/"
		}
		builder.WriteString(name)
		builder.WriteString("\n")
	}
	return textResult(builder.String()), nil
}

func (t *fsTools) readFile(ctx context.Context, input *ReadFileInput) (*schema.CallToolResult, error) {
	if input.Location == "" {
		return nil, fmt.Errorf("location was empty")
	}
	data, err := t.fs.DownloadWithURL(ctx, t.location(input.Location), t.config.Options...)
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

func textResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: text},
		},
	}
}
