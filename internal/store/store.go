package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahid-app/sah/internal/models"
)

const maxIDRetries = 10

// Store errors.
var (
	// ErrNotFound is returned when a mutation targets an unknown id. Lookups
	// via Get report absence with a bool instead; absence there is an
	// expected outcome (a link not yet replicated to this store).
	ErrNotFound = errors.New("agreement not found")

	// ErrIDExhausted is returned when a fresh id could not be generated
	// without colliding, which with 9 base36 characters means the id
	// generator is broken.
	ErrIDExhausted = errors.New("unable to allocate unique agreement id")
)

// InvalidTransitionError reports a rejected status transition. The store
// enforces the state machine: approve requires pending, pay requires
// approved, nothing leaves paid.
type InvalidTransitionError struct {
	ID   string
	From models.Status
	To   models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("agreement %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// Store owns the in-memory collection and mirrors every successful mutation
// to its durable slot. The in-memory collection is the source of truth for
// the session; slot durability is best-effort and a failed write never rolls
// a mutation back.
type Store struct {
	mu         sync.Mutex
	slot       Slot
	agreements []models.Agreement

	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides agreement id generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger attaches a logger for persistence diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New loads the collection from the slot. An empty slot is seeded with the
// demo agreements and the seed is persisted. A corrupt slot falls back to
// the seed set; load failures are never fatal to startup.
func New(ctx context.Context, slot Slot, opts ...Option) (*Store, error) {
	if slot == nil {
		return nil, fmt.Errorf("store: slot required")
	}

	s := &Store{
		slot:   slot,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  NewAgreementID,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load collection: %w", err)
	}

	if len(data) == 0 {
		s.agreements = SeedAgreements(s.now())
		s.persistLocked(ctx)
		s.logger.Info().Int("count", len(s.agreements)).Msg("seeded demo agreements")
		return s, nil
	}

	var agreements []models.Agreement
	if err := json.Unmarshal(data, &agreements); err != nil {
		s.logger.Error().Err(err).Msg("slot parse failed, falling back to seed data")
		s.agreements = SeedAgreements(s.now())
		s.persistLocked(ctx)
		return s, nil
	}

	s.agreements = agreements
	s.logger.Debug().Int("count", len(agreements)).Msg("loaded agreements from slot")
	return s, nil
}

// CreateFields are the caller-supplied fields for a new agreement.
type CreateFields struct {
	Title            string
	RecipientAddress string
	Amount           string
	Description      string
	CreatorAddress   string
}

// Create appends a fresh pending agreement and returns it. The id is a
// random 9-character base36 token, regenerated on the unlikely collision.
func (s *Store) Create(ctx context.Context, fields CreateFields) (models.Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for attempt := 0; attempt < maxIDRetries; attempt++ {
		candidate := s.newID()
		if s.indexOfLocked(candidate) < 0 {
			id = candidate
			break
		}
	}
	if id == "" {
		return models.Agreement{}, ErrIDExhausted
	}

	agreement := models.Agreement{
		ID:               id,
		Title:            fields.Title,
		RecipientAddress: fields.RecipientAddress,
		Amount:           fields.Amount,
		Description:      fields.Description,
		Status:           models.StatusPending,
		CreatorAddress:   fields.CreatorAddress,
		CreatedAt:        s.now(),
	}

	s.agreements = append(s.agreements, agreement)
	s.persistLocked(ctx)
	return agreement, nil
}

// Get looks up an agreement by id. Unknown or empty ids report false.
func (s *Store) Get(id string) (models.Agreement, bool) {
	if id == "" {
		return models.Agreement{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return models.Agreement{}, false
	}
	return s.agreements[idx], true
}

// List returns a copy of the collection, newest last.
func (s *Store) List() []models.Agreement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Agreement, len(s.agreements))
	copy(out, s.agreements)
	return out
}

// Approve moves a pending agreement to approved and stamps ApprovedAt.
func (s *Store) Approve(ctx context.Context, id string) (models.Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return models.Agreement{}, ErrNotFound
	}

	current := s.agreements[idx]
	if !current.Status.CanTransitionTo(models.StatusApproved) {
		return models.Agreement{}, &InvalidTransitionError{ID: id, From: current.Status, To: models.StatusApproved}
	}

	approvedAt := s.now()
	s.agreements[idx].Status = models.StatusApproved
	s.agreements[idx].ApprovedAt = &approvedAt
	s.persistLocked(ctx)
	return s.agreements[idx], nil
}

// Pay moves an approved agreement to paid, stamping PaidAt and the
// transaction hash.
func (s *Store) Pay(ctx context.Context, id, txHash string) (models.Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return models.Agreement{}, ErrNotFound
	}

	current := s.agreements[idx]
	if !current.Status.CanTransitionTo(models.StatusPaid) {
		return models.Agreement{}, &InvalidTransitionError{ID: id, From: current.Status, To: models.StatusPaid}
	}

	paidAt := s.now()
	s.agreements[idx].Status = models.StatusPaid
	s.agreements[idx].PaidAt = &paidAt
	s.agreements[idx].TransactionHash = txHash
	s.persistLocked(ctx)
	return s.agreements[idx], nil
}

// Adopt inserts an agreement that originated elsewhere (a decoded share
// link) unless the id already exists locally. Returns the stored record and
// whether it was inserted.
func (s *Store) Adopt(ctx context.Context, agreement models.Agreement) (models.Agreement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOfLocked(agreement.ID); idx >= 0 {
		return s.agreements[idx], false
	}

	s.agreements = append(s.agreements, agreement)
	s.persistLocked(ctx)
	return agreement, true
}

// Close flushes the collection to the slot one final time.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s.agreements)
	if err != nil {
		return fmt.Errorf("store: marshal collection: %w", err)
	}
	if err := s.slot.Save(ctx, data); err != nil {
		return fmt.Errorf("store: final flush: %w", err)
	}
	return nil
}

func (s *Store) indexOfLocked(id string) int {
	for i := range s.agreements {
		if s.agreements[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the collection back to the slot. The mutation has
// already committed in memory; a write failure is logged and swallowed.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.agreements)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal agreements")
		return
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist agreements")
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAgreementID returns a random 9-character base36 token, the public
// lookup key embedded in share links.
func NewAgreementID() string {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("store: read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
