package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <id>",
		Short: "Pay an approved agreement from the connected wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paid, err := a.service.Pay(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), paid)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Payment sent.\n\n")
			printAgreement(out, paid)
			fmt.Fprintf(out, "\n%s  %s IDRX\n", label("Remaining balance:"), a.wallet.Balance())
			return nil
		},
	}
}
