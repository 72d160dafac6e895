package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"LedgerSync/internal/config"
	"LedgerSync/internal/export"
	"LedgerSync/internal/ledger"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/report"
	"LedgerSync/internal/store"
	"LedgerSync/internal/syncer"
)

func main() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Run ledger syncs and reports from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(syncCmd(), importCmd(), reportCmd(), exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg   config.Config
	store store.RecordStore
	names ledger.NameBook
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	names, err := ledger.LoadNames(cfg.AccountNamesFile)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: st, names: names}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func syncCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch records from the remote API and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.store.Close()

			client := remote.NewClient(remote.Config{
				TokenURL:    e.cfg.TokenURL,
				DataURL:     e.cfg.DataURL,
				Username:    e.cfg.Username,
				Password:    e.cfg.Password,
				Timeout:     e.cfg.APITimeout,
				InsecureTLS: e.cfg.InsecureTLS,
			})
			res, err := syncer.New(client, e.store, syncer.WithSource(client.Source())).Sync(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", config.ScheduledSyncTimeout, "overall time limit")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Store records from an xlsx, xls or csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			records, err := remote.ReadSpreadsheet(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.store.Close()

			noRemote := syncer.FetcherFunc(func(ctx context.Context) ([]ledger.Record, error) {
				return nil, errors.New("remote fetch is not available during import")
			})
			res, err := syncer.New(noRemote, e.store).Import(cmd.Context(), args[0], records)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func reportCmd() *cobra.Command {
	var opts report.Options
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the stored ledger as an indented trial balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.store.Close()

			records, err := e.store.All(cmd.Context())
			if err != nil {
				return err
			}
			forest := ledger.NewBuilder(e.names).BuildForest(records)
			return report.WriteTree(cmd.OutOrStdout(), forest, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Currency, "currency", report.DefaultCurrency, "ISO 4217 currency code")
	cmd.Flags().IntVar(&opts.MaxDepth, "depth", 0, "deepest level to print, 0 for all")
	cmd.Flags().BoolVar(&opts.HideZero, "hide-zero", false, "skip accounts whose totals are zero")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored ledger to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.store.Close()

			records, err := e.store.All(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = "mizan_" + time.Now().Format("20060102") + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			forest := ledger.NewBuilder(e.names).BuildForest(records)
			if err := export.WriteWorkbook(f, forest, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default mizan_YYYYMMDD.xlsx)")
	return cmd
}
