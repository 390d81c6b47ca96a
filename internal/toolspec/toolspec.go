// Package toolspec derives machine-readable tool schemas from the CLI command
// definitions, so agents can discover and call every operation the binary
// exposes. The schema follows the OpenAI function-calling format.
package toolspec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"aipseo/pkg/apperror"
)

// Property describes one parameter of a tool.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Parameters is the JSON-schema object wrapper for a tool's parameters.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Tool is one callable operation.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// FromCommands walks the command tree and produces one tool per leaf command.
// Subcommand names are joined to their group with an underscore, so
// `wallet balance` becomes `wallet_balance`.
func FromCommands(cmds []*cli.Command) []Tool {
	var tools []Tool
	for _, cmd := range cmds {
		tools = append(tools, fromCommand(cmd, "")...)
	}
	return tools
}

func fromCommand(cmd *cli.Command, prefix string) []Tool {
	// The cli package injects a help command into every command list.
	if cmd.Hidden || cmd.Name == "help" {
		return nil
	}

	name := cmd.Name
	if prefix != "" {
		name = prefix + "_" + cmd.Name
	}

	if len(cmd.Subcommands) > 0 {
		var tools []Tool
		for _, sub := range cmd.Subcommands {
			tools = append(tools, fromCommand(sub, name)...)
		}
		return tools
	}

	params := Parameters{
		Type:       "object",
		Properties: map[string]Property{},
	}

	for _, arg := range positionalArgs(cmd.ArgsUsage) {
		params.Properties[arg] = Property{Type: "string"}
		params.Required = append(params.Required, arg)
	}

	for _, flag := range cmd.Flags {
		name, prop, required, ok := fromFlag(flag)
		if !ok {
			continue
		}
		params.Properties[name] = prop
		if required {
			params.Required = append(params.Required, name)
		}
	}

	return []Tool{{
		Name:        name,
		Description: cmd.Usage,
		Parameters:  params,
	}}
}

// positionalArgs extracts parameter names from an ArgsUsage string such as
// "<url>" or "<source> <target>".
func positionalArgs(argsUsage string) []string {
	var args []string
	for _, field := range strings.Fields(argsUsage) {
		name := strings.Trim(field, "<>[]")
		if name != "" {
			args = append(args, name)
		}
	}
	return args
}

func fromFlag(flag cli.Flag) (string, Property, bool, bool) {
	switch f := flag.(type) {
	case *cli.StringFlag:
		prop := Property{Type: "string", Description: f.Usage}
		if f.Value != "" {
			prop.Default = f.Value
		}
		return f.Name, prop, f.Required, true
	case *cli.BoolFlag:
		prop := Property{Type: "boolean", Description: f.Usage}
		if f.Value {
			prop.Default = true
		}
		return f.Name, prop, f.Required, true
	case *cli.IntFlag:
		prop := Property{Type: "integer", Description: f.Usage}
		if f.Value != 0 {
			prop.Default = f.Value
		}
		return f.Name, prop, f.Required, true
	case *cli.Int64Flag:
		prop := Property{Type: "integer", Description: f.Usage}
		if f.Value != 0 {
			prop.Default = f.Value
		}
		return f.Name, prop, f.Required, true
	case *cli.Float64Flag:
		prop := Property{Type: "number", Description: f.Usage}
		if f.Value != 0 {
			prop.Default = f.Value
		}
		return f.Name, prop, f.Required, true
	default:
		return "", Property{}, false, false
	}
}

// Emit renders the tool list in the requested format. Only "openai" is
// supported.
func Emit(cmds []*cli.Command, format string) ([]byte, error) {
	if !strings.EqualFold(format, "openai") {
		return nil, apperror.ErrValidation(fmt.Sprintf("unsupported toolspec format %q", format))
	}
	out, err := json.MarshalIndent(FromCommands(cmds), "", "  ")
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return out, nil
}
