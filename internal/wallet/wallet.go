// Package wallet simulates the wallet session used by the demo: a randomly
// generated address and balance, persisted across runs in durable slots.
// There is no real chain behind any of this.
package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sahid-app/sah/internal/models"
	"github.com/sahid-app/sah/internal/store"
)

const (
	minSeedBalance = 1_000_000
	maxSeedBalance = 10_000_000
)

// ErrNotConnected is returned when an operation requires a connected wallet.
var ErrNotConnected = errors.New("wallet not connected")

// Wallet holds the simulated session. The numeric balance lives in memory
// and is mirrored to its slot as plain digits; grouping is display-only.
type Wallet struct {
	addressSlot store.Slot
	balanceSlot store.Slot

	address string
	balance float64

	newAddress func() string
	seedAmount func() float64
	logger     zerolog.Logger
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithAddressGenerator overrides address generation, for tests.
func WithAddressGenerator(gen func() string) Option {
	return func(w *Wallet) {
		if gen != nil {
			w.newAddress = gen
		}
	}
}

// WithBalanceSeeder overrides the initial balance draw, for tests.
func WithBalanceSeeder(seed func() float64) Option {
	return func(w *Wallet) {
		if seed != nil {
			w.seedAmount = seed
		}
	}
}

// WithLogger attaches a logger for persistence diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Wallet) {
		w.logger = logger
	}
}

// New restores a wallet session from its slots. A previously persisted
// address reconnects automatically.
func New(ctx context.Context, addressSlot, balanceSlot store.Slot, opts ...Option) (*Wallet, error) {
	if addressSlot == nil || balanceSlot == nil {
		return nil, fmt.Errorf("wallet: both slots required")
	}

	w := &Wallet{
		addressSlot: addressSlot,
		balanceSlot: balanceSlot,
		newAddress:  NewWalletAddress,
		seedAmount:  randomBalance,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	saved, err := addressSlot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("wallet: restore session: %w", err)
	}
	if len(saved) > 0 {
		w.address = strings.TrimSpace(string(saved))
		if err := w.loadBalance(ctx); err != nil {
			return nil, err
		}
		w.logger.Debug().Str("address", models.ShortenAddress(w.address)).Msg("restored wallet session")
	}

	return w, nil
}

// Connect generates a fresh address, persists it, and ensures a balance is
// seeded. Connecting while already connected replaces the session.
func (w *Wallet) Connect(ctx context.Context) (string, error) {
	w.address = w.newAddress()
	if err := w.addressSlot.Save(ctx, []byte(w.address)); err != nil {
		return "", fmt.Errorf("wallet: persist address: %w", err)
	}
	if err := w.loadBalance(ctx); err != nil {
		return "", err
	}
	w.logger.Info().Str("address", models.ShortenAddress(w.address)).Msg("wallet connected")
	return w.address, nil
}

// Disconnect clears the session and both slots.
func (w *Wallet) Disconnect(ctx context.Context) error {
	w.address = ""
	w.balance = 0
	if err := w.addressSlot.Save(ctx, nil); err != nil {
		return fmt.Errorf("wallet: clear address: %w", err)
	}
	if err := w.balanceSlot.Save(ctx, nil); err != nil {
		return fmt.Errorf("wallet: clear balance: %w", err)
	}
	return nil
}

// Connected reports whether a session is active.
func (w *Wallet) Connected() bool {
	return w.address != ""
}

// Address returns the session address, or "" when disconnected.
func (w *Wallet) Address() string {
	return w.address
}

// Balance returns the current balance as grouped decimal text.
func (w *Wallet) Balance() string {
	return models.FormatAmount(w.balance)
}

// Deduct subtracts a grouped-text amount from the balance and mirrors the
// new value to the slot. The balance mutation commits in memory first; a
// slot-write failure is logged, not rolled back.
func (w *Wallet) Deduct(ctx context.Context, amount string) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	value, err := models.ParseAmount(amount)
	if err != nil {
		return fmt.Errorf("wallet: deduct: %w", err)
	}

	w.balance -= value
	if err := w.persistBalance(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to persist balance")
	}
	w.logger.Info().
		Str("deducted", models.FormatAmount(value)).
		Str("balance", w.Balance()).
		Msg("balance deducted")
	return nil
}

// loadBalance restores the persisted balance, seeding a random one on first
// use and persisting the seed.
func (w *Wallet) loadBalance(ctx context.Context) error {
	saved, err := w.balanceSlot.Load(ctx)
	if err != nil {
		return fmt.Errorf("wallet: load balance: %w", err)
	}
	if len(saved) > 0 {
		value, err := strconv.ParseFloat(strings.TrimSpace(string(saved)), 64)
		if err == nil {
			w.balance = value
			return nil
		}
		w.logger.Error().Err(err).Msg("saved balance unreadable, reseeding")
	}

	w.balance = w.seedAmount()
	if err := w.persistBalance(ctx); err != nil {
		return err
	}
	w.logger.Info().Str("balance", w.Balance()).Msg("seeded wallet balance")
	return nil
}

func (w *Wallet) persistBalance(ctx context.Context) error {
	raw := strconv.FormatFloat(w.balance, 'f', -1, 64)
	if err := w.balanceSlot.Save(ctx, []byte(raw)); err != nil {
		return fmt.Errorf("wallet: persist balance: %w", err)
	}
	return nil
}

// NewWalletAddress returns a random 0x-prefixed 40-hex-digit address.
func NewWalletAddress() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("wallet: read random bytes: %v", err))
	}
	return "0x" + hex.EncodeToString(buf)
}

// randomBalance draws the initial demo balance from [1,000,000, 10,000,000).
func randomBalance() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(maxSeedBalance-minSeedBalance))
	if err != nil {
		panic(fmt.Sprintf("wallet: read random bytes: %v", err))
	}
	return float64(n.Int64() + minSeedBalance)
}
