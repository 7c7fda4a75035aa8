package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

type recordFlags struct {
	remote  string
	user    string
	timeout time.Duration
}

// lister is implemented by backends that can enumerate their records
type lister interface {
	List(ctx context.Context) ([]types.RecordMetadata, error)
}

func newRecordCmd() *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Read and write stored layout records",
		Long: `Inspect or replace a user's persisted layout record.

By default the backend configured in the environment is used
(STORAGE_DRIVER, SQLITE_PATH, REDIS_ADDR, REMOTE_URL). --remote talks
to another cardspace server instead.`,
	}
	cmd.PersistentFlags().StringVar(&flags.remote, "remote", "", "Base URL of a cardspace server")
	cmd.PersistentFlags().StringVar(&flags.user, "user", "", "User id")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "Request timeout")

	cmd.AddCommand(newRecordGetCmd(&flags), newRecordPutCmd(&flags), newRecordListCmd(&flags))
	return cmd
}

// openStore returns the remote store when --remote is set, the configured backend otherwise
func openStore(ctx context.Context, flags *recordFlags) (storage.RecordStore, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.StorageOptions()
	if flags.remote != "" {
		opts.Driver = "remote"
		opts.RemoteURL = flags.remote
		opts.Timeout = flags.timeout
	}
	return storage.Open(ctx, opts, logger.Component("storage"))
}

func requireUser(flags *recordFlags) error {
	return utils.ValidateID(flags.user, "user", true)
}

func newRecordGetCmd(flags *recordFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print a user's layout record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			store, err := openStore(ctx, flags)
			if err != nil {
				return err
			}
			defer storage.Close(store)

			rec, err := store.Load(ctx, flags.user)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no record for user %s", flags.user)
			}
			if err != nil {
				return err
			}

			data, err := sonic.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newRecordPutCmd(flags *recordFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a layout record read from --file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(flags); err != nil {
				return err
			}

			var (
				data []byte
				err  error
			)
			if file == "" || file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("failed to read record: %w", err)
			}

			var rec types.LayoutRecord
			if err := sonic.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to decode record: %w", err)
			}
			rec.UserID = flags.user
			if rec.UpdatedAt.IsZero() {
				rec.UpdatedAt = time.Now().UTC()
			}
			// the content may have been edited by hand
			hash, err := utils.DefaultHasher().HashRecord(&rec)
			if err != nil {
				return err
			}
			rec.Hash = hash

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			store, err := openStore(ctx, flags)
			if err != nil {
				return err
			}
			defer storage.Close(store)

			if err := store.Save(ctx, &rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d cards for %s (%s) hash %s\n",
				len(rec.Cards), rec.UserID, store.Name(), rec.Hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Record JSON file, - or empty for stdin")
	return cmd
}

func newRecordListCmd(flags *recordFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored records (sqlite backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			store, err := openStore(ctx, flags)
			if err != nil {
				return err
			}
			defer storage.Close(store)

			l, ok := store.(lister)
			if !ok {
				return fmt.Errorf("%s backend cannot list records", store.Name())
			}
			records, err := l.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tDEVICE\tVERSION\tCARDS\tUPDATED\tHASH")
			for _, m := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%.12s\n",
					m.UserID, m.DeviceID, m.Version, m.CardCount,
					m.UpdatedAt.Format(time.RFC3339), m.Hash)
			}
			return w.Flush()
		},
	}
}
