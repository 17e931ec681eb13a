package store

import (
	"time"

	"github.com/sahid-app/sah/internal/models"
)

// SeedAgreements returns the demo collection used when the slot is empty or
// unreadable. It covers all three lifecycle states so every screen has data
// to show on first run.
func SeedAgreements(now time.Time) []models.Agreement {
	dayAgo := now.Add(-24 * time.Hour)
	halfDayAgo := now.Add(-12 * time.Hour)
	twoDaysAgo := now.Add(-48 * time.Hour)
	thirtySixHoursAgo := now.Add(-36 * time.Hour)

	return []models.Agreement{
		{
			ID:               "tt1wgjnz1",
			Title:            "Pembayaran Jasa Desain Website",
			RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1",
			Amount:           "5,000,000",
			Description:      "Pembayaran untuk jasa pembuatan website company profile dengan fitur responsive design, SEO optimization, dan integrasi payment gateway.",
			Status:           models.StatusPending,
			CreatorAddress:   "0x1234567890abcdef1234567890abcdef12345678",
			CreatedAt:        now,
		},
		{
			ID:               "heeht0dge",
			Title:            "Pembayaran Konsultasi IT",
			RecipientAddress: "0x8ba1f109551bD432803012645Hac136c22C57B",
			Amount:           "2,500,000",
			Description:      "Konsultasi pengembangan sistem informasi manajemen untuk perusahaan retail.",
			Status:           models.StatusApproved,
			CreatorAddress:   "0x9876543210fedcba9876543210fedcba98765432",
			CreatedAt:        dayAgo,
			ApprovedAt:       &halfDayAgo,
		},
		{
			ID:               "irjqrpypd",
			Title:            "Pembayaran Aplikasi Mobile",
			RecipientAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Amount:           "15,000,000",
			Description:      "Pengembangan aplikasi mobile e-commerce dengan fitur payment gateway dan notifikasi push.",
			Status:           models.StatusPaid,
			CreatorAddress:   "0xabcdef1234567890abcdef1234567890abcdef12",
			CreatedAt:        twoDaysAgo,
			ApprovedAt:       &thirtySixHoursAgo,
			PaidAt:           &dayAgo,
			TransactionHash:  "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef12",
		},
	}
}
