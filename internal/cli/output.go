package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sahid-app/sah/internal/models"
)

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// printAgreement writes the detail view shared by show, approve, and pay.
func printAgreement(out io.Writer, agreement models.Agreement) {
	fmt.Fprintf(out, "%s  %s\n", label("ID:"), agreement.ID)
	fmt.Fprintf(out, "%s  %s\n", label("Title:"), agreement.Title)
	fmt.Fprintf(out, "%s  %s\n", label("Status:"), statusBadge(agreement.Status))
	fmt.Fprintf(out, "%s  %s IDRX\n", label("Amount:"), agreement.Amount)
	fmt.Fprintf(out, "%s  %s\n", label("From:"), models.ShortenAddress(agreement.CreatorAddress))
	fmt.Fprintf(out, "%s  %s\n", label("To:"), models.ShortenAddress(agreement.RecipientAddress))
	if agreement.Description != "" {
		fmt.Fprintf(out, "%s  %s\n", label("Description:"), agreement.Description)
	}
	fmt.Fprintf(out, "%s  %s\n", label("Created:"), formatTime(agreement.CreatedAt))
	if agreement.ApprovedAt != nil {
		fmt.Fprintf(out, "%s  %s\n", label("Approved:"), formatTime(*agreement.ApprovedAt))
	}
	if agreement.PaidAt != nil {
		fmt.Fprintf(out, "%s  %s\n", label("Paid:"), formatTime(*agreement.PaidAt))
	}
	if agreement.TransactionHash != "" {
		fmt.Fprintf(out, "%s  %s\n", label("Tx hash:"), agreement.TransactionHash)
	}
}
