// Package linkcode implements the reversible transform between an
// agreement's immutable fields and the URL-safe token embedded in share
// links. A token is canonical JSON, percent-encoded, base64-encoded, with
// the three URL-unsafe base64 characters remapped (+ -> -, / -> _) and
// trailing = padding stripped.
package linkcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sahid-app/sah/internal/models"
)

// Payload carries the immutable creation fields of an agreement. This is the
// complete set of data a share link is able to transport; lifecycle state
// (approvals, payments) never travels in links.
type Payload struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	RecipientAddress string `json:"recipientAddress"`
	Amount           string `json:"amount"`
	Description      string `json:"description"`
	CreatorAddress   string `json:"creatorAddress"`
	CreatedAt        string `json:"createdAt"`
}

// PayloadFromAgreement extracts the link payload from an agreement.
func PayloadFromAgreement(a models.Agreement) Payload {
	return Payload{
		ID:               a.ID,
		Title:            a.Title,
		RecipientAddress: a.RecipientAddress,
		Amount:           a.Amount,
		Description:      a.Description,
		CreatorAddress:   a.CreatorAddress,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Detached builds the detached pending-status projection of the payload.
// The projection is not backed by any store: status is forced to pending and
// no approval or payment fields are present, because links only carry the
// immutable creation fields.
func (p Payload) Detached() models.Agreement {
	createdAt, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}
	return models.Agreement{
		ID:               p.ID,
		Title:            p.Title,
		RecipientAddress: p.RecipientAddress,
		Amount:           p.Amount,
		Description:      p.Description,
		Status:           models.StatusPending,
		CreatorAddress:   p.CreatorAddress,
		CreatedAt:        createdAt,
	}
}

var base64Remap = strings.NewReplacer("+", "-", "/", "_", "=", "")

// Encode serializes the payload into a URL-safe token.
func Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("linkcode: marshal payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(escapeURIComponent(string(raw))))
	return base64Remap.Replace(encoded), nil
}

// Decode reverses Encode. All failure paths collapse to nil so callers have
// a single "no embedded data" signal; Decode never panics and never returns
// an error.
func Decode(token string) *Payload {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	restored := strings.NewReplacer("-", "+", "_", "/").Replace(token)
	if pad := len(restored) % 4; pad != 0 {
		restored += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.StdEncoding.DecodeString(restored)
	if err != nil {
		return nil
	}

	unescaped, err := url.PathUnescape(string(decoded))
	if err != nil {
		return nil
	}

	if !validateShape([]byte(unescaped)) {
		return nil
	}

	var payload Payload
	if err := json.Unmarshal([]byte(unescaped), &payload); err != nil {
		return nil
	}
	if payload.ID == "" || payload.Title == "" || payload.RecipientAddress == "" || payload.Amount == "" {
		return nil
	}
	return &payload
}

// escapeURIComponent percent-encodes everything outside the unreserved set,
// matching encodeURIComponent so tokens stay portable across decoders.
func escapeURIComponent(s string) string {
	const unreserved = "-_.!~*'()"
	var builder strings.Builder
	builder.Grow(len(s))
	for _, b := range []byte(s) {
		switch {
		case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
			builder.WriteByte(b)
		case strings.IndexByte(unreserved, b) >= 0:
			builder.WriteByte(b)
		default:
			builder.WriteString(fmt.Sprintf("%%%02X", b))
		}
	}
	return builder.String()
}
