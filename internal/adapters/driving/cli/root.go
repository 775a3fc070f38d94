// Package cli implements the litsearch command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the bootstrap hook, or directly by tests.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	exportService   driving.ExportService
	settingsService driving.SettingsService
)

// Global flags.
var (
	verbose   bool
	configDir string
	dataDir   string
	ephemeral bool
)

// annotationServices declares which services a command needs. Commands
// without it (version, help, completion) run without bootstrapping.
const annotationServices = "litsearch/services"

// Values for annotationServices.
const (
	needsSettings = "settings"
	needsAll      = "all"
)

// Exit codes returned by Execute.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInputError = 2
)

// Options are the global flag values handed to the bootstrap hook.
type Options struct {
	ConfigDir string
	DataDir   string
	Ephemeral bool

	// TopK is the per-field candidate override from `query --top-k`.
	TopK int

	SettingsOnly bool
}

// Services are the driving ports a bootstrap hook provides.
type Services struct {
	Ingest   driving.IngestService
	Query    driving.QueryService
	Export   driving.ExportService
	Settings driving.SettingsService

	// Close releases stores and connections. It may be nil.
	Close func() error
}

// Bootstrap builds services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap     Bootstrap
	closeServices func() error
)

// SetBootstrap installs the hook that wires services before each command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

var rootCmd = &cobra.Command{
	Use:   "litsearch",
	Short: "Ingest scholarly articles and query them by meaning",
	Long: `litsearch keeps a relational article store and a per-field vector store in
sync, and answers free-text queries by combining semantic similarity with
publication date filters.

Articles are ingested from JSON or JSON Lines files produced by a scraper.
Queries rank articles by their best-matching field (title, abstract,
summary or keywords).`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&configDir, "config-dir", "", "configuration directory (default: ~/.litsearch)")
	pf.StringVar(&dataDir, "data-dir", "", "SQLite data directory (default: ~/.litsearch/data)")
	pf.BoolVar(&ephemeral, "ephemeral", false, "keep articles and vectors in memory for this run")
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	needs := cmd.Annotations[annotationServices]
	if bootstrap == nil || needs == "" {
		return nil
	}

	svcs, err := bootstrap(cmd.Context(), Options{
		ConfigDir:    configDir,
		DataDir:      dataDir,
		Ephemeral:    ephemeral,
		TopK:         queryTopK,
		SettingsOnly: needs == needsSettings,
	})
	if err != nil {
		return err
	}
	ingestService = svcs.Ingest
	queryService = svcs.Query
	exportService = svcs.Export
	settingsService = svcs.Settings
	closeServices = svcs.Close
	return nil
}

// Execute runs the root command and returns the process exit code.
// Interrupts cancel the command context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		closeServices = nil
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case domain.IsInputError(err), errors.Is(err, errUsage):
		return ExitInputError
	default:
		return ExitFailure
	}
}

// errUsage marks argument errors detected by commands themselves.
var errUsage = errors.New("usage error")
