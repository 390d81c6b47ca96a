package main

import (
	"github.com/urfave/cli/v2"

	"aipseo/pkg/apperror"
)

var walletFlag = &cli.StringFlag{
	Name:  "wallet",
	Usage: "path to the wallet file (defaults to wallet.path from config)",
}

var keyFlag = &cli.StringFlag{
	Name:  "idempotency-key",
	Usage: "idempotency key for safe retries (generated when omitted)",
}

var walletCmd = cli.Command{
	Name:  "wallet",
	Usage: "Manage the local encrypted wallet",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create a new encrypted wallet file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "output",
					Usage: "where to write the wallet file (defaults to wallet.path from config)",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "human-readable wallet name",
					Value: "default",
				},
				&cli.BoolFlag{
					Name:  "force",
					Usage: "overwrite an existing wallet file",
				},
			},
			Action: walletCreateAction,
		},
		{
			Name:   "balance",
			Usage:  "Show the wallet balance",
			Flags:  []cli.Flag{walletFlag},
			Action: walletBalanceAction,
		},
		{
			Name:  "deposit",
			Usage: "Add funds to the wallet",
			Flags: []cli.Flag{
				walletFlag,
				keyFlag,
				&cli.StringFlag{
					Name:     "amount",
					Usage:    "amount in dollars, e.g. 100.00",
					Required: true,
				},
			},
			Action: walletDepositAction,
		},
		{
			Name:  "withdraw",
			Usage: "Withdraw funds to an external destination",
			Flags: []cli.Flag{
				walletFlag,
				keyFlag,
				&cli.StringFlag{
					Name:     "amount",
					Usage:    "amount in dollars, e.g. 40.00",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "dest",
					Usage:    "payout destination reference",
					Required: true,
				},
			},
			Action: walletWithdrawAction,
		},
		{
			Name:   "transactions",
			Usage:  "List the wallet's full transaction history",
			Flags:  []cli.Flag{walletFlag},
			Action: walletTransactionsAction,
		},
		{
			Name:   "reconcile",
			Usage:  "Resolve transactions interrupted mid-protocol",
			Flags:  []cli.Flag{walletFlag},
			Action: walletReconcileAction,
		},
	},
}

func walletCreateAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	pass, err := passphrase(true)
	if err != nil {
		return err
	}

	path := ctx.String("output")
	if path == "" {
		path = d.cfg.Wallet.Path
	}

	wallet, err := d.store.Create(path, ctx.String("name"), pass, ctx.Bool("force"))
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"wallet_id": wallet.WalletID,
		"name":      wallet.Name,
		"version":   wallet.Version,
		"balance":   minorToAmount(wallet.Balance()),
		"path":      path,
	})
	return nil
}

func walletBalanceAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	wallet, err := d.coordinator.Balance(d.walletPath(ctx), pass)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"wallet_id":     wallet.WalletID,
		"name":          wallet.Name,
		"version":       wallet.Version,
		"balance":       minorToAmount(wallet.Balance()),
		"balance_minor": wallet.Balance(),
	})
	return nil
}

func walletDepositAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	amount, err := amountToMinor(ctx.String("amount"))
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	res, err := d.coordinator.Deposit(ctx.Context, d.walletPath(ctx), pass, idempotencyKey(ctx), amount)
	if err != nil {
		return err
	}

	printRespJSON(res)
	return nil
}

func walletWithdrawAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	amount, err := amountToMinor(ctx.String("amount"))
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	res, err := d.coordinator.Withdraw(ctx.Context, d.walletPath(ctx), pass, idempotencyKey(ctx), amount, ctx.String("dest"))
	if err != nil {
		return err
	}

	printRespJSON(res)
	return nil
}

func walletTransactionsAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	wallet, err := d.coordinator.Balance(d.walletPath(ctx), pass)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"wallet_id":    wallet.WalletID,
		"transactions": wallet.Ledger.Transactions,
	})
	return nil
}

func walletReconcileAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	pass, err := passphrase(false)
	if err != nil {
		return err
	}

	report, err := d.coordinator.Reconcile(ctx.Context, d.walletPath(ctx), pass)
	if err != nil {
		return err
	}

	printRespJSON(report)

	if len(report.Remaining) > 0 {
		return apperror.ErrNetwork(nil)
	}
	return nil
}
