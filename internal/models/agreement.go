// Package models defines the core domain types shared across SAH.
package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle state of an agreement.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Transitions are forward-only: pending -> approved -> paid.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved
	case StatusApproved:
		return next == StatusPaid
	}
	return false
}

// Agreement is the payment-agreement record tracked by the store. The JSON
// shape is the durable-slot and share-link wire format, so field names stay
// camelCase and timestamps serialize as RFC3339.
type Agreement struct {
	// ID is the unique identifier, a 9-character base36 token.
	ID string `json:"id"`

	// Title is a short human-readable label for the agreement.
	Title string `json:"title"`

	// RecipientAddress is the wallet address of the party being paid.
	RecipientAddress string `json:"recipientAddress"`

	// Amount is the negotiated amount as grouped decimal text, e.g. "1,000,000".
	Amount string `json:"amount"`

	// Description explains what the payment is for.
	Description string `json:"description"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// CreatorAddress is the wallet address of the creating party. Immutable.
	CreatorAddress string `json:"creatorAddress"`

	// CreatedAt is when the agreement was created. Immutable.
	CreatedAt time.Time `json:"createdAt"`

	// ApprovedAt is set exactly once, when the recipient approves.
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`

	// PaidAt is set exactly once, when the creator pays.
	PaidAt *time.Time `json:"paidAt,omitempty"`

	// TransactionHash is the simulated on-chain hash, set on pay.
	TransactionHash string `json:"transactionHash,omitempty"`
}

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 40-hex-digit address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// SameAddress compares two wallet addresses case-insensitively.
func SameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// ParseAmount parses grouped decimal text into a number. Both "." and ","
// are accepted as grouping separators and stripped before parsing.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not numeric", s)
	}
	return value, nil
}

// FormatAmount renders a number as grouped decimal text, matching the
// grouping used by the seeded agreements ("5,000,000").
func FormatAmount(value float64) string {
	digits := strconv.FormatInt(int64(value), 10)
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var builder strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(r)
	}
	if negative {
		return "-" + builder.String()
	}
	return builder.String()
}

// ShortenAddress abbreviates a wallet address for display and logs,
// e.g. "0x742d...bEb1". Short inputs pass through unchanged.
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
