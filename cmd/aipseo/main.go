package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"aipseo/config"
	"aipseo/internal/adapter/marketplace"
	"aipseo/internal/adapter/walletfile"
	"aipseo/internal/service"
	"aipseo/pkg/apperror"
	"aipseo/pkg/logger"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()

	app.Name = "aipseo"
	app.Usage = "SEO marketplace wallet and transaction coordinator"
	app.Version = version
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a config file",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	}
	app.Commands = []*cli.Command{
		&initCmd,
		&validateCmd,
		&lookupCmd,
		&spamScoreCmd,
		&walletCmd,
		&marketCmd,
		&toolspecCmd,
		&serveCmd,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(apperror.ExitCodeFor(err))
}

// deps wires the adapters and services for one command invocation.
type deps struct {
	cfg         *config.Config
	log         zerolog.Logger
	store       *walletfile.Store
	market      *marketplace.Client
	coordinator *service.CoordinatorService
}

func buildDeps(ctx *cli.Context) (*deps, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	level := cfg.Log.Level
	if ctx.Bool("verbose") {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Pretty)

	market := marketplace.NewClient(cfg.API, cfg.Retry, log)
	store := walletfile.New(service.NewArgonEnvelopeService(), log)

	return &deps{
		cfg:         cfg,
		log:         log,
		store:       store,
		market:      market,
		coordinator: service.NewCoordinatorService(store, market, log),
	}, nil
}

// walletPath resolves the wallet file location: explicit flag, then config.
func (d *deps) walletPath(ctx *cli.Context) string {
	if p := ctx.String("wallet"); p != "" {
		return p
	}
	return d.cfg.Wallet.Path
}

// passphrase resolves the wallet passphrase from the environment or an
// interactive prompt. It is never accepted as a command-line flag.
func passphrase(confirm bool) (string, error) {
	if v := os.Getenv(config.PassphraseEnv); v != "" {
		return v, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", apperror.ErrValidation(fmt.Sprintf("passphrase required: set %s or run interactively", config.PassphraseEnv))
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", apperror.InternalError(err)
	}
	if len(first) == 0 {
		return "", apperror.ErrValidation("passphrase must not be empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", apperror.InternalError(err)
		}
		if string(first) != string(second) {
			return "", apperror.ErrValidation("passphrases do not match")
		}
	}

	return string(first), nil
}

// amountToMinor parses a decimal dollar amount into integer minor units.
// Anything finer than a cent is rejected rather than rounded.
func amountToMinor(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, apperror.ErrValidation(fmt.Sprintf("invalid amount %q", raw))
	}

	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, apperror.ErrFractionalAmount()
	}
	if cents.Sign() <= 0 {
		return 0, apperror.ErrValidation("amount must be positive")
	}
	return cents.IntPart(), nil
}

// minorToAmount renders minor units as a fixed two-decimal dollar string.
func minorToAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// idempotencyKey returns the caller-supplied key or generates a fresh one.
func idempotencyKey(ctx *cli.Context) string {
	if k := ctx.String("idempotency-key"); k != "" {
		return k
	}
	return uuid.New().String()
}

func printRespJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(out))
}
