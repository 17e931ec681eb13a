package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the simulated wallet session",
	}

	cmd.AddCommand(
		newWalletConnectCmd(a),
		newWalletStatusCmd(a),
		newWalletBalanceCmd(a),
		newWalletDisconnectCmd(a),
	)
	return cmd
}

func newWalletConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect a wallet with a fresh random address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := a.wallet.Connect(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"address": address,
					"balance": a.wallet.Balance(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected as %s\n", address)
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s IDRX\n", a.wallet.Balance())
			return nil
		},
	}
}

func newWalletStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current wallet session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.jsonOut {
				status := map[string]any{"connected": a.wallet.Connected()}
				if a.wallet.Connected() {
					status["address"] = a.wallet.Address()
					status["balance"] = a.wallet.Balance()
				}
				return printJSON(out, status)
			}
			if !a.wallet.Connected() {
				fmt.Fprintln(out, "Not connected. Run: sah wallet connect")
				return nil
			}
			fmt.Fprintf(out, "%s  %s\n", label("Address:"), a.wallet.Address())
			fmt.Fprintf(out, "%s  %s IDRX\n", label("Balance:"), a.wallet.Balance())
			return nil
		},
	}
}

func newWalletBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.wallet.Connected() {
				return fmt.Errorf("wallet not connected, run: sah wallet connect")
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{"balance": a.wallet.Balance()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s IDRX\n", a.wallet.Balance())
			return nil
		},
	}
}

func newWalletDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect and clear the wallet session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wallet.Disconnect(cmd.Context()); err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"connected": false})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected.")
			return nil
		},
	}
}
