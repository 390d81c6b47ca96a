package main

import (
	"github.com/urfave/cli/v2"

	"aipseo/pkg/apperror"
)

var lookupCmd = cli.Command{
	Name:      "lookup",
	Usage:     "Look up SEO metrics for a URL",
	ArgsUsage: "<url>",
	Action:    lookupAction,
}

var spamScoreCmd = cli.Command{
	Name:      "spam-score",
	Usage:     "Check the spam score of a URL",
	ArgsUsage: "<url>",
	Action:    spamScoreAction,
}

func lookupAction(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return apperror.ErrValidation("a url argument is required")
	}

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	metrics, err := d.market.Lookup(ctx.Context, url)
	if err != nil {
		return err
	}

	printRespJSON(metrics)
	return nil
}

func spamScoreAction(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return apperror.ErrValidation("a url argument is required")
	}

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	score, err := d.market.SpamScore(ctx.Context, url)
	if err != nil {
		return err
	}

	printRespJSON(score)
	return nil
}
