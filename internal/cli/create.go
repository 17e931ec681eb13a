package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/lifecycle"
	"github.com/sahid-app/sah/internal/models"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		title       string
		to          string
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agreement and print its share link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.service.Create(cmd.Context(), lifecycle.CreateInput{
				Title:            title,
				RecipientAddress: to,
				Amount:           amount,
				Description:      description,
			})
			if err != nil {
				var verrs *models.ValidationErrors
				if errors.As(err, &verrs) {
					for _, fieldErr := range verrs.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fieldErr.Error())
					}
					return fmt.Errorf("invalid agreement")
				}
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"agreement": result.Agreement,
					"shareUrl":  result.ShareURL,
				})
			}

			out := cmd.OutOrStdout()
			printAgreement(out, result.Agreement)
			if result.ShareURL != "" {
				fmt.Fprintf(out, "\nShare link:\n  %s\n", result.ShareURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "agreement title")
	cmd.Flags().StringVar(&to, "to", "", "recipient wallet address (0x...)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in IDRX, grouping optional")
	cmd.Flags().StringVar(&description, "description", "", "what the payment is for")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
