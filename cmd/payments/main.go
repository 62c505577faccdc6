/*
main.go - Application entry point

PURPOSE:
  The payments binary has two modes:

  Replay (default):
    payments transactions.csv > accounts.csv
    Reads an ordered transaction CSV, replays it through one engine, and
    writes the final account snapshot to stdout. Recoverable rejections
    are logged and skipped; a fatal invariant violation aborts the run
    with a non-zero exit code.

  Serve:
    payments serve -port 8080
    Runs the HTTP API around a fresh engine with graceful shutdown on
    SIGINT/SIGTERM.

FLAGS:
  --journal   SQLite path for the processing journal (default: disabled;
              pass ":memory:" for an ephemeral journal)
  --quiet     Suppress per-rejection logging
  serve:
  --port      HTTP server port (default: 8080)

EXIT CODES:
  0  snapshot written (rejected transactions do not fail the run)
  1  unreadable input, malformed CSV, or a corrupted ledger

SEE ALSO:
  - csvio: CSV decode/serialize
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/payments-engine/api"
	"github.com/warp/payments-engine/csvio"
	"github.com/warp/payments-engine/ledger"
	"github.com/warp/payments-engine/store/sqlite"
)

var (
	journalPath string
	quiet       bool
	port        int
)

func main() {
	root := &cobra.Command{
		Use:           "payments <transactions.csv>",
		Short:         "Replay a transaction CSV into a client account snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0], cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite path for the processing journal (empty disables it)")
	root.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress per-rejection logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	serve.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	// stdout is reserved for the snapshot CSV.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func openJournal() (*sqlite.Journal, error) {
	if journalPath == "" {
		return nil, nil
	}
	return sqlite.New(journalPath)
}

// =============================================================================
// REPLAY MODE
// =============================================================================

func runReplay(csvPath string, out io.Writer) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	journal, err := openJournal()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("cannot open transactions file %q: %w", csvPath, err)
	}
	defer file.Close()

	eng := ledger.NewEngine()
	reader := csvio.NewReader(file)
	ctx := context.Background()

	for {
		tx, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse transactions: %w", err)
		}

		processErr := eng.Process(tx)

		if journal != nil {
			if err := journal.Record(ctx, sqlite.EntryFor(tx, processErr)); err != nil {
				log.Warn("journal record failed", zap.Error(err))
			}
		}

		if processErr == nil {
			continue
		}
		if !ledger.IsRecoverable(processErr) {
			return fmt.Errorf("fatal error while processing transaction %d: %w", tx.TxID, processErr)
		}
		log.Info("transaction rejected",
			zap.Uint32("tx", uint32(tx.TxID)),
			zap.Uint16("client", uint16(tx.ClientID)),
			zap.String("type", string(tx.Type)),
			zap.Error(processErr))
	}

	return csvio.WriteAccounts(out, eng.Accounts())
}

// =============================================================================
// SERVE MODE
// =============================================================================

func runServe() error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	journal, err := openJournal()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	handler := api.NewHandler(ledger.NewEngine(), journal, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
