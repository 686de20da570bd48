/*
Package cli implements renewctl, the terminal front end of the renewal
engine.

COMMANDS:
  renewctl methods                         payment menu
  renewctl premium  <vehicle flags>        premium breakdown
  renewctl status   <vehicle flags>        status, days and fine
  renewctl quote    <vehicle flags> -m N   bill for method N
  renewctl renew    <vehicle flags> -m N   confirm and commit
  renewctl receipts                        receipts in the ledger

VEHICLE FLAGS:
  --make --model --year --value --fuel --registered [--due] [--as-of]

CONFIRMATION:
  renew prints the bill and asks "Pay Rs. <total> via <method>? (y/n)".
  --yes skips the prompt. Any answer other than y/yes declines.

STORAGE:
  Receipts go to the SQLite ledger given by --db. Without --db they are
  kept in memory for the life of the process.

SEE ALSO:
  - cmd/renewctl/main.go: entry point
  - renewal/workflow.go: the flow each command drives
*/
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/renewal-engine/factory"
	"github.com/warp/renewal-engine/logging"
	"github.com/warp/renewal-engine/renewal"
	"github.com/warp/renewal-engine/store/memory"
	"github.com/warp/renewal-engine/store/sqlite"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// RootOptions holds global flags.
type RootOptions struct {
	TariffFile   string
	DBPath       string
	OutputFormat string
	LogLevel     string
}

// env is what every subcommand works with once the root has initialised.
type env struct {
	workflow *renewal.Workflow
	receipts renewal.ReceiptStore
	logger   logging.Logger
	in       io.Reader
	out      io.Writer
	format   string
	closer   func() error
}

// NewRootCommand builds the command tree. in and out replace stdin and
// stdout, which keeps the commands testable.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &RootOptions{}
	e := &env{in: in, out: out}

	cmd := &cobra.Command{
		Use:     "renewctl",
		Short:   "Vehicle insurance renewal: premiums, status, quotes and renewals",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.TariffFile, "tariff", "", "JSON tariff override file")
	pf.StringVar(&opts.DBPath, "db", "", "SQLite receipt ledger (default: in-memory)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newMethodsCmd(e),
		newPremiumCmd(e),
		newStatusCmd(e),
		newQuoteCmd(e),
		newRenewCmd(e),
		newReceiptsCmd(e),
	)
	return cmd
}

// Execute runs renewctl against the process's stdio.
func Execute() int {
	root := NewRootCommand(os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (e *env) init(opts *RootOptions) error {
	switch opts.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (text, json)", opts.OutputFormat)
	}
	e.format = opts.OutputFormat

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       opts.LogLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	e.logger = logger

	tariff, rates, err := factory.LoadTariffFile(opts.TariffFile)
	if err != nil {
		return err
	}

	if opts.DBPath != "" {
		store, err := sqlite.New(opts.DBPath)
		if err != nil {
			return err
		}
		e.receipts = store
		e.closer = store.Close
	} else {
		e.receipts = memory.New()
	}

	e.workflow = renewal.New(tariff, rates, e.receipts, renewal.WithLogger(logger.Named("renewal")))
	return nil
}

func (e *env) close() error {
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	if e.closer != nil {
		return e.closer()
	}
	return nil
}
