// Package lifecycle orchestrates agreement operations end to end: input
// validation, wallet checks, simulated confirmation delays, and the store
// transition, publishing events for surfaces to render along the way.
package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahid-app/sah/internal/events"
	"github.com/sahid-app/sah/internal/linkcode"
	"github.com/sahid-app/sah/internal/models"
	"github.com/sahid-app/sah/internal/resolve"
	"github.com/sahid-app/sah/internal/store"
)

// Operation errors surfaced to callers. Transition violations come through
// as *store.InvalidTransitionError, unknown ids as store.ErrNotFound.
var (
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrRecipientMismatch   = errors.New("connected address is not the recipient")
	ErrNotApproved         = errors.New("agreement must be approved before payment")
	ErrAlreadyPaid         = errors.New("agreement already paid")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Wallet is the session surface the lifecycle needs. *wallet.Wallet
// implements it.
type Wallet interface {
	Connected() bool
	Address() string
	Balance() string
	Deduct(ctx context.Context, amount string) error
}

// Waiter models the confirmation delays. Tests inject an instant one.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepWaiter waits in real time, honoring context cancellation.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config carries the tunables the service reads from configuration.
type Config struct {
	// BaseURL is the prefix for generated share links.
	BaseURL string

	// ApproveDelay simulates the recipient-side confirmation wait.
	ApproveDelay time.Duration

	// WalletDelay simulates the wallet confirmation prompt.
	WalletDelay time.Duration

	// NetworkDelay simulates on-chain settlement.
	NetworkDelay time.Duration
}

// Service coordinates the store, wallet, and event publisher.
type Service struct {
	store     *store.Store
	resolver  *resolve.Resolver
	wallet    Wallet
	waiter    Waiter
	publisher events.Publisher
	cfg       Config
	newTxHash func() string
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWaiter replaces the real-time waiter, for tests.
func WithWaiter(w Waiter) Option {
	return func(s *Service) {
		if w != nil {
			s.waiter = w
		}
	}
}

// WithTxHashGenerator overrides transaction hash generation, for tests.
func WithTxHashGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newTxHash = gen
		}
	}
}

// WithPublisher attaches an event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a lifecycle service over the store and wallet.
func New(st *store.Store, w Wallet, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:     st,
		resolver:  resolve.New(st),
		wallet:    w,
		waiter:    SleepWaiter{},
		publisher: events.NewInMemoryPublisher(),
		cfg:       cfg,
		newTxHash: NewTransactionHash,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the user-supplied portion of a new agreement.
type CreateInput struct {
	Title            string
	RecipientAddress string
	Amount           string
	Description      string
}

// CreateResult is a stored agreement plus its share link.
type CreateResult struct {
	Agreement models.Agreement
	ShareURL  string
}

// Create validates input against the connected wallet, stores the
// agreement, and builds its share link. All field problems are reported
// together as a models.ValidationErrors.
func (s *Service) Create(ctx context.Context, input CreateInput) (CreateResult, error) {
	if !s.wallet.Connected() {
		return CreateResult{}, ErrWalletNotConnected
	}
	creator := s.wallet.Address()

	var verrs models.ValidationErrors
	if input.Title == "" {
		verrs.AddMessage("title", "title is required")
	}
	if input.Description == "" {
		verrs.AddMessage("description", "description is required")
	}
	switch {
	case input.RecipientAddress == "":
		verrs.AddMessage("recipientAddress", "recipient address is required")
	case !models.ValidAddress(input.RecipientAddress):
		verrs.AddMessage("recipientAddress", "recipient address must be 0x followed by 40 hex digits")
	case models.SameAddress(input.RecipientAddress, creator):
		verrs.AddMessage("recipientAddress", "recipient cannot be your own address")
	}
	amount, err := models.ParseAmount(input.Amount)
	switch {
	case err != nil:
		verrs.AddMessage("amount", "amount must be a number")
	case amount <= 0:
		verrs.AddMessage("amount", "amount must be greater than zero")
	default:
		if balance, berr := models.ParseAmount(s.wallet.Balance()); berr == nil && amount > balance {
			verrs.AddMessage("amount", "amount exceeds wallet balance")
		}
	}
	if err := verrs.Err(); err != nil {
		return CreateResult{}, err
	}

	agreement, err := s.store.Create(ctx, store.CreateFields{
		Title:            input.Title,
		RecipientAddress: input.RecipientAddress,
		Amount:           models.FormatAmount(amount),
		Description:      input.Description,
		CreatorAddress:   creator,
	})
	if err != nil {
		return CreateResult{}, err
	}

	shareURL, err := linkcode.BuildShareURL(s.cfg.BaseURL, linkcode.PayloadFromAgreement(agreement))
	if err != nil {
		// The agreement is already stored; a link problem must not undo it.
		s.logger.Warn().Err(err).Str("id", agreement.ID).Msg("share link generation failed")
		shareURL = ""
	}

	s.publish(events.TypeAgreementCreated, agreement.ID,
		fmt.Sprintf("Agreement %q created", agreement.Title), events.LevelSuccess)
	return CreateResult{Agreement: agreement, ShareURL: shareURL}, nil
}

// ApproveRequest locates the agreement to approve. ID or URL may each be
// empty; a decodable URL token takes priority. CandidateAddress defaults to
// the connected wallet address.
type ApproveRequest struct {
	ID               string
	URL              string
	CandidateAddress string
}

// Approve confirms the agreement as its recipient. The identity check runs
// before any state change or delay. An agreement known only from link data
// is adopted into the store so the transition can be recorded.
func (s *Service) Approve(ctx context.Context, req ApproveRequest) (models.Agreement, error) {
	result := s.resolver.Resolve(req.URL, req.ID)
	if !result.Found() {
		return models.Agreement{}, store.ErrNotFound
	}
	view := result.Agreement

	candidate := req.CandidateAddress
	if candidate == "" {
		if !s.wallet.Connected() {
			return models.Agreement{}, ErrWalletNotConnected
		}
		candidate = s.wallet.Address()
	}
	if !models.SameAddress(view.RecipientAddress, candidate) {
		return models.Agreement{}, ErrRecipientMismatch
	}

	if err := s.waiter.Wait(ctx, s.cfg.ApproveDelay); err != nil {
		return models.Agreement{}, err
	}

	if result.Source == resolve.SourceEmbedded {
		if adopted, fresh := s.store.Adopt(ctx, view); fresh {
			s.logger.Info().Str("id", adopted.ID).Msg("adopted agreement from share link")
		}
	}

	approved, err := s.store.Approve(ctx, view.ID)
	if err != nil {
		return models.Agreement{}, err
	}

	s.publish(events.TypeAgreementApproved, approved.ID,
		fmt.Sprintf("Agreement %q approved", approved.Title), events.LevelSuccess)
	return approved, nil
}

// Pay settles an approved agreement from the connected wallet. The balance
// check happens before any simulated delay so an underfunded wallet fails
// fast.
func (s *Service) Pay(ctx context.Context, id string) (models.Agreement, error) {
	agreement, ok := s.store.Get(id)
	if !ok {
		return models.Agreement{}, store.ErrNotFound
	}
	switch agreement.Status {
	case models.StatusApproved:
	case models.StatusPaid:
		return models.Agreement{}, ErrAlreadyPaid
	default:
		return models.Agreement{}, ErrNotApproved
	}

	if !s.wallet.Connected() {
		return models.Agreement{}, ErrWalletNotConnected
	}

	amount, err := models.ParseAmount(agreement.Amount)
	if err != nil {
		return models.Agreement{}, fmt.Errorf("stored amount unreadable: %w", err)
	}
	balance, err := models.ParseAmount(s.wallet.Balance())
	if err != nil {
		return models.Agreement{}, fmt.Errorf("wallet balance unreadable: %w", err)
	}
	if amount > balance {
		return models.Agreement{}, ErrInsufficientBalance
	}

	s.publish(events.TypeNotice, id, "Membuka wallet untuk konfirmasi...", events.LevelInfo)
	if err := s.waiter.Wait(ctx, s.cfg.WalletDelay); err != nil {
		return models.Agreement{}, err
	}

	s.publish(events.TypeNotice, id, "Mengirim transaksi ke blockchain...", events.LevelInfo)
	if err := s.waiter.Wait(ctx, s.cfg.NetworkDelay); err != nil {
		return models.Agreement{}, err
	}

	txHash := s.newTxHash()
	if err := s.wallet.Deduct(ctx, agreement.Amount); err != nil {
		return models.Agreement{}, fmt.Errorf("deduct payment: %w", err)
	}

	paid, err := s.store.Pay(ctx, id, txHash)
	if err != nil {
		return models.Agreement{}, err
	}

	s.publish(events.TypeAgreementPaid, paid.ID,
		fmt.Sprintf("Payment of %s IDRX sent", paid.Amount), events.LevelSuccess)
	return paid, nil
}

func (s *Service) publish(eventType events.Type, agreementID, message string, level events.Level) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.New(eventType, agreementID, message, level))
}

// NewTransactionHash returns a random 0x-prefixed 64-hex-digit hash.
func NewTransactionHash() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("lifecycle: read random bytes: %v", err))
	}
	return "0x" + hex.EncodeToString(buf)
}
