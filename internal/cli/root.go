// Package cli implements the sah command tree.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/config"
	"github.com/sahid-app/sah/internal/events"
	"github.com/sahid-app/sah/internal/lifecycle"
	"github.com/sahid-app/sah/internal/logging"
	"github.com/sahid-app/sah/internal/store"
	"github.com/sahid-app/sah/internal/wallet"
)

// Slot keys for the three persisted documents.
const (
	agreementsSlotKey    = "sah-agreements"
	walletAddressSlotKey = "sah-wallet-address"
	walletBalanceSlotKey = "sah-idrx-balance"
)

// Execute runs the CLI and returns the root command error, if any.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

// app carries the wired dependencies shared by all subcommands. It is built
// once per invocation in the root PersistentPreRunE.
type app struct {
	configFile string
	logLevel   string
	jsonOut    bool

	cfg       *config.Config
	store     *store.Store
	wallet    *wallet.Wallet
	service   *lifecycle.Service
	publisher *events.InMemoryPublisher
	db        *sql.DB
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "sah",
		Short:         "Create, share, and settle payment agreements",
		Long: `sah manages payment agreements between two wallet addresses.

An agreement moves pending -> approved -> paid. Share links carry the
full agreement in the URL itself, so the recipient can view and approve
it without any shared storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "JSON output")

	cmd.AddCommand(
		newWalletCmd(a),
		newCreateCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newApproveCmd(a),
		newPayCmd(a),
		newReceiptCmd(a),
		newLinkCmd(a),
	)

	return cmd
}

// init loads configuration and wires the store, wallet, and lifecycle
// service. Toast notices stream to stderr as they are published unless
// JSON output is requested.
func (a *app) init(ctx context.Context) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("cli")

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	agreementsSlot, addressSlot, balanceSlot, err := a.openSlots()
	if err != nil {
		return err
	}

	a.store, err = store.New(ctx, agreementsSlot, store.WithLogger(logging.Component("store")))
	if err != nil {
		return err
	}

	a.wallet, err = wallet.New(ctx, addressSlot, balanceSlot, wallet.WithLogger(logging.Component("wallet")))
	if err != nil {
		return err
	}

	a.publisher = events.NewInMemoryPublisher()
	if !a.jsonOut {
		err := a.publisher.Subscribe("cli-toasts", events.Filter{}, func(event *events.Event) {
			fmt.Fprintln(os.Stderr, renderToast(event))
		})
		if err != nil {
			return err
		}
	}

	a.service = lifecycle.New(a.store, a.wallet, lifecycle.Config{
		BaseURL:      cfg.Link.BaseURL,
		ApproveDelay: cfg.Payment.ApproveDelay,
		WalletDelay:  cfg.Payment.WalletDelay,
		NetworkDelay: cfg.Payment.NetworkDelay,
	},
		lifecycle.WithPublisher(a.publisher),
		lifecycle.WithLogger(logging.Component("lifecycle")),
	)

	logger.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("data_dir", cfg.Global.DataDir).
		Msg("initialized")
	return nil
}

// openSlots builds the three durable slots on the configured backend.
func (a *app) openSlots() (agreements, address, balance store.Slot, err error) {
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := store.OpenDatabase(a.cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, err
		}
		a.db = db
		agreements, err := store.NewSQLiteSlot(db, agreementsSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		address, err := store.NewSQLiteSlot(db, walletAddressSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		balance, err := store.NewSQLiteSlot(db, walletBalanceSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		return agreements, address, balance, nil
	default:
		dataDir := a.cfg.Global.DataDir
		agreements, err := store.NewFileSlot(dataDir, agreementsSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		address, err := store.NewFileSlot(dataDir, walletAddressSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		balance, err := store.NewFileSlot(dataDir, walletBalanceSlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		return agreements, address, balance, nil
	}
}

func (a *app) close(ctx context.Context) error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
