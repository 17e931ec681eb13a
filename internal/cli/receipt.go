package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/models"
	"github.com/sahid-app/sah/internal/store"
)

func newReceiptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <id>",
		Short: "Print the payment receipt for a paid agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agreement, ok := a.store.Get(args[0])
			if !ok {
				return store.ErrNotFound
			}
			if agreement.Status != models.StatusPaid {
				return fmt.Errorf("agreement %s is %s, receipts exist only for paid agreements", agreement.ID, agreement.Status)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":              agreement.ID,
					"title":           agreement.Title,
					"amount":          agreement.Amount,
					"from":            agreement.CreatorAddress,
					"to":              agreement.RecipientAddress,
					"transactionHash": agreement.TransactionHash,
					"paidAt":          agreement.PaidAt,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Payment receipt")
			fmt.Fprintln(out, "---------------")
			fmt.Fprintf(out, "%s  %s\n", label("Agreement:"), agreement.ID)
			fmt.Fprintf(out, "%s  %s\n", label("Title:"), agreement.Title)
			fmt.Fprintf(out, "%s  %s IDRX\n", label("Amount:"), agreement.Amount)
			fmt.Fprintf(out, "%s  %s\n", label("From:"), agreement.CreatorAddress)
			fmt.Fprintf(out, "%s  %s\n", label("To:"), agreement.RecipientAddress)
			fmt.Fprintf(out, "%s  %s\n", label("Tx hash:"), agreement.TransactionHash)
			if agreement.PaidAt != nil {
				fmt.Fprintf(out, "%s  %s\n", label("Paid at:"), formatTime(*agreement.PaidAt))
			}
			return nil
		},
	}
}
