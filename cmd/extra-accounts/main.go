package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/account-resolution/pkg/accounts"
	"github.com/code-payments/account-resolution/pkg/app"
	"github.com/code-payments/account-resolution/pkg/manifest"
	"github.com/code-payments/account-resolution/pkg/solana"
)

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	errUsage = errors.New("usage: extra-accounts [-config path] <init|update|resolve> <manifest> | inspect <address>")
)

func main() {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "cmd/extra-accounts")

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	ctx, env, err := app.Setup(context.Background(), config)
	if err != nil {
		log.WithError(err).Error("failed to setup application")
		os.Exit(1)
	}

	err = run(ctx, env.Provider, flag.Args(), os.Stdout)
	if closeErr := env.Close(); closeErr != nil {
		log.WithError(closeErr).Warn("failed to close application")
	}

	if err == errUsage {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	} else if err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, provider *accounts.Provider, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errUsage
	}

	switch args[0] {
	case "init":
		return initLists(ctx, provider, args[1], out)
	case "update":
		return updateLists(ctx, provider, args[1], out)
	case "resolve":
		return resolveInstructions(ctx, provider, args[1], out)
	case "inspect":
		return inspect(ctx, provider, args[1], out)
	default:
		return errUsage
	}
}

func initLists(ctx context.Context, provider *accounts.Provider, path string, out io.Writer) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	program, _ := m.ProgramKey()
	address, _ := m.AddressKey()

	for _, l := range m.Lists {
		d, _ := l.ToDiscriminator()
		requirements, _ := l.ToRequirements()

		if err := provider.InitializeList(ctx, program, address, d, requirements); err != nil {
			return errors.Wrapf(err, "error initializing list %s", d)
		}
		fmt.Fprintf(out, "initialized %s with %d requirements\n", d, len(requirements))
	}

	return nil
}

func updateLists(ctx context.Context, provider *accounts.Provider, path string, out io.Writer) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	address, _ := m.AddressKey()

	for _, l := range m.Lists {
		d, _ := l.ToDiscriminator()
		requirements, _ := l.ToRequirements()

		if err := provider.UpdateList(ctx, address, d, requirements); err != nil {
			return errors.Wrapf(err, "error updating list %s", d)
		}
		fmt.Fprintf(out, "updated %s with %d requirements\n", d, len(requirements))
	}

	return nil
}

func resolveInstructions(ctx context.Context, provider *accounts.Provider, path string, out io.Writer) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	program, _ := m.ProgramKey()
	address, _ := m.AddressKey()

	for i, instruction := range m.Instructions {
		ix, d, _ := instruction.ToInstruction(program)

		if err := provider.ResolveInstruction(ctx, address, &ix, d); err != nil {
			return errors.Wrapf(err, "error resolving instruction %d", i)
		}

		fmt.Fprintf(out, "instruction %d (%s):\n", i, d)
		for j, account := range ix.Accounts {
			fmt.Fprintf(
				out,
				"  %d %s signer=%v writable=%v\n",
				j,
				solana.PublicKeyToString(account.PublicKey),
				account.IsSigner,
				account.IsWritable,
			)
		}
	}

	return nil
}

func inspect(ctx context.Context, provider *accounts.Provider, value string, out io.Writer) error {
	address, err := solana.PublicKeyFromString(value)
	if err != nil {
		return err
	}

	lists, err := provider.GetLists(ctx, address)
	if err != nil {
		return err
	}

	for _, l := range lists {
		fmt.Fprintf(out, "%s (%d/%d):\n", l.Discriminator, len(l.Requirements), l.Capacity)
		for i, r := range l.Requirements {
			fmt.Fprintf(out, "  %d %s\n", i, r.String())
		}
	}

	return nil
}
