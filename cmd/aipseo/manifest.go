package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"aipseo/internal/manifest"
	"aipseo/pkg/apperror"
)

var initCmd = cli.Command{
	Name:  "init",
	Usage: "Write a starter aipseo.json manifest",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "path",
			Usage: "where to write the manifest",
			Value: manifest.DefaultPath,
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "overwrite an existing manifest",
		},
	},
	Action: initAction,
}

var validateCmd = cli.Command{
	Name:  "validate",
	Usage: "Validate an aipseo.json manifest",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "manifest file to validate",
			Value: manifest.DefaultPath,
		},
	},
	Action: validateAction,
}

func initAction(ctx *cli.Context) error {
	m := manifest.New()
	path := ctx.String("path")

	if err := m.Write(path, ctx.Bool("force")); err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"path":    path,
		"tool_id": m.ToolID,
		"version": m.Version,
	})
	return nil
}

func validateAction(ctx *cli.Context) error {
	path := ctx.String("file")

	findings, err := manifest.Check(path)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		printRespJSON(map[string]interface{}{
			"file":     path,
			"valid":    false,
			"findings": findings,
		})
		return apperror.ErrValidation(fmt.Sprintf("validation failed for %q", path))
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"file":    path,
		"valid":   true,
		"tool_id": m.ToolID,
		"version": m.Version,
	})
	return nil
}
