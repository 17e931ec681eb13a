package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/linkcode"
	"github.com/sahid-app/sah/internal/store"
)

func newLinkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Work with share-link tokens directly",
	}
	cmd.AddCommand(newLinkEncodeCmd(a), newLinkDecodeCmd(a))
	return cmd
}

func newLinkEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <id>",
		Short: "Print the share link for a stored agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agreement, ok := a.store.Get(args[0])
			if !ok {
				return store.ErrNotFound
			}
			url, err := linkcode.BuildShareURL(a.cfg.Link.BaseURL, linkcode.PayloadFromAgreement(agreement))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"id":       agreement.ID,
					"shareUrl": url,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newLinkDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|share-url>",
		Short: "Decode a share-link token and print the embedded agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if looksLikeURL(token) {
				token = linkcode.TokenFromURL(token)
			}

			payload := linkcode.Decode(token)
			if payload == nil {
				return fmt.Errorf("token does not decode to an agreement")
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), payload)
			}
			printAgreement(cmd.OutOrStdout(), payload.Detached())
			return nil
		},
	}
}
