package main

import (
	"github.com/urfave/cli/v2"

	"aipseo/internal/core/domain"
)

var marketCmd = cli.Command{
	Name:  "market",
	Usage: "Search, buy, and sell backlink listings",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "Search marketplace listings",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "dr-min",
					Usage: "minimum domain rating",
				},
				&cli.StringFlag{
					Name:  "price-max",
					Usage: "maximum price in dollars",
				},
				&cli.StringFlag{
					Name:  "topic",
					Usage: "topic filter",
				},
			},
			Action: marketListAction,
		},
		{
			Name:  "buy",
			Usage: "Buy a listing with wallet funds",
			Flags: []cli.Flag{
				walletFlag,
				keyFlag,
				&cli.StringFlag{
					Name:     "listing-id",
					Usage:    "id of the listing to buy",
					Required: true,
				},
			},
			Action: marketBuyAction,
		},
		{
			Name:  "sell",
			Usage: "Publish a backlink listing for sale",
			Flags: []cli.Flag{
				walletFlag,
				keyFlag,
				&cli.StringFlag{
					Name:     "source-url",
					Usage:    "page that will carry the link",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "target-url",
					Usage:    "page the link points to",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "price",
					Usage:    "asking price in dollars",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "anchor",
					Usage: "anchor text",
				},
			},
			Action: marketSellAction,
		},
	},
}

func marketListAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	var filter domain.SearchFilter
	if ctx.IsSet("dr-min") {
		v := ctx.Int("dr-min")
		filter.DRMin = &v
	}
	if raw := ctx.String("price-max"); raw != "" {
		v, err := amountToMinor(raw)
		if err != nil {
			return err
		}
		filter.PriceMax = &v
	}
	filter.Topic = ctx.String("topic")

	listings, err := d.market.SearchListings(ctx.Context, filter)
	if err != nil {
		return err
	}

	printRespJSON(listings)
	return nil
}

func marketBuyAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	res, err := d.coordinator.Buy(ctx.Context, d.walletPath(ctx), pass, idempotencyKey(ctx), ctx.String("listing-id"))
	if err != nil {
		return err
	}

	printRespJSON(res)
	return nil
}

func marketSellAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	price, err := amountToMinor(ctx.String("price"))
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	draft := domain.ListingDraft{
		SourceURL: ctx.String("source-url"),
		TargetURL: ctx.String("target-url"),
		Price:     price,
		Anchor:    ctx.String("anchor"),
	}

	res, err := d.coordinator.Sell(ctx.Context, d.walletPath(ctx), pass, idempotencyKey(ctx), draft)
	if err != nil {
		return err
	}

	printRespJSON(res)
	return nil
}
