// Command litsearch ingests scholarly articles and answers hybrid
// semantic and date-filtered queries over them.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/litsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/litsearch/internal/app"
	"github.com/custodia-labs/litsearch/internal/logger"
)

func main() {
	// A missing .env is normal; variables already set are not overridden.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error("loading .env: %v", err)
	}

	cli.SetBootstrap(bootstrap)
	os.Exit(cli.Execute())
}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	c, err := app.New(ctx, app.Options{
		ConfigDir:    opts.ConfigDir,
		DataDir:      opts.DataDir,
		Ephemeral:    opts.Ephemeral,
		TopK:         opts.TopK,
		SettingsOnly: opts.SettingsOnly,
	})
	if err != nil {
		return nil, err
	}

	svcs := &cli.Services{
		Settings: c.Settings,
		Close:    c.Close,
	}
	// Typed nil pointers must not become non-nil interfaces.
	if c.Ingest != nil {
		svcs.Ingest = c.Ingest
	}
	if c.Query != nil {
		svcs.Query = c.Query
	}
	if c.Export != nil {
		svcs.Export = c.Export
	}
	return svcs, nil
}
