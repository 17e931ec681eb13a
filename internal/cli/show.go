package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sahid-app/sah/internal/linkcode"
	"github.com/sahid-app/sah/internal/resolve"
	"github.com/sahid-app/sah/internal/store"
)

// looksLikeURL reports whether the argument is a share link rather than an id.
func looksLikeURL(arg string) bool {
	return strings.Contains(arg, "://") || strings.Contains(arg, "/#/")
}

func newShowCmd(a *app) *cobra.Command {
	var withURL bool

	cmd := &cobra.Command{
		Use:   "show <id|share-url>",
		Short: "Show one agreement",
		Long: `Show one agreement by id or share link.

A share link carries the agreement inside the URL. That embedded copy is a
snapshot from creation time: it always reads as pending, even if the other
party has since approved or paid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rawURL, id string
			if looksLikeURL(args[0]) {
				rawURL = args[0]
			} else {
				id = args[0]
			}

			result := resolve.New(a.store).Resolve(rawURL, id)
			if !result.Found() {
				return store.ErrNotFound
			}

			shareURL := ""
			if withURL {
				url, err := linkcode.BuildShareURL(a.cfg.Link.BaseURL, linkcode.PayloadFromAgreement(result.Agreement))
				if err != nil {
					return err
				}
				shareURL = url
			}

			if a.jsonOut {
				payload := map[string]any{
					"agreement": result.Agreement,
					"source":    result.Source,
				}
				if shareURL != "" {
					payload["shareUrl"] = shareURL
				}
				return printJSON(cmd.OutOrStdout(), payload)
			}

			out := cmd.OutOrStdout()
			printAgreement(out, result.Agreement)
			if result.Source == resolve.SourceEmbedded {
				fmt.Fprintln(out, "\nNote: read from the share link, which snapshots the agreement at creation. The other party may have moved it forward since.")
			}
			if shareURL != "" {
				fmt.Fprintf(out, "\nShare link:\n  %s\n", shareURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withURL, "url", false, "also print the share link")
	return cmd
}
