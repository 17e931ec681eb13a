package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/lifecycle"
)

func newApproveCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "approve <id|share-url>",
		Short: "Approve an agreement as its recipient",
		Long: `Approve an agreement as its recipient.

The connected wallet address must match the agreement's recipient address
(case-insensitive). Pass a share link to approve an agreement created on
another device; it is adopted into local storage first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := lifecycle.ApproveRequest{CandidateAddress: address}
			if looksLikeURL(args[0]) {
				req.URL = args[0]
			} else {
				req.ID = args[0]
			}

			approved, err := a.service.Approve(cmd.Context(), req)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), approved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Agreement %s approved.\n\n", approved.ID)
			printAgreement(cmd.OutOrStdout(), approved)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "approve as this address instead of the connected wallet")
	return cmd
}
