package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"aipseo/internal/toolspec"
)

var toolspecCmd = cli.Command{
	Name:  "toolspec",
	Usage: "Emit a machine-readable schema of every command",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format",
			Value: "openai",
		},
	},
	Action: toolspecAction,
}

func toolspecAction(ctx *cli.Context) error {
	out, err := toolspec.Emit(ctx.App.Commands, ctx.String("format"))
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
