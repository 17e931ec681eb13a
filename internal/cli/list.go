package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/models"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agreements on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agreements := a.store.List()

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), agreements)
			}

			if len(agreements) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agreements yet. Run: sah create")
				return nil
			}

			headers := []string{"ID", "TITLE", "AMOUNT", "STATUS", "RECIPIENT", "CREATED"}
			rows := make([][]string, 0, len(agreements))
			for _, agreement := range agreements {
				rows = append(rows, []string{
					agreement.ID,
					agreement.Title,
					agreement.Amount,
					statusBadge(agreement.Status),
					models.ShortenAddress(agreement.RecipientAddress),
					formatTime(agreement.CreatedAt),
				})
			}
			return writeTable(cmd.OutOrStdout(), headers, rows)
		},
	}
}
