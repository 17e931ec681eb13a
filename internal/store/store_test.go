package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/sahid-app/sah/internal/models"
)

// memorySlot is an in-memory Slot with optional write-failure injection.
type memorySlot struct {
	data    []byte
	saves   int
	saveErr error
}

func (m *memorySlot) Load(ctx context.Context) ([]byte, error) {
	return m.data, nil
}

func (m *memorySlot) Save(ctx context.Context, data []byte) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func newTestStore(t *testing.T, slot Slot, opts ...Option) *Store {
	t.Helper()
	s, err := New(context.Background(), slot, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func testFields() CreateFields {
	return CreateFields{
		Title:            "Test",
		RecipientAddress: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Amount:           "1,000,000",
		Description:      "d",
		CreatorAddress:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
}

func TestNewSeedsEmptySlot(t *testing.T) {
	slot := &memorySlot{}
	s := newTestStore(t, slot)

	agreements := s.List()
	if len(agreements) != 3 {
		t.Fatalf("expected 3 seeded agreements, got %d", len(agreements))
	}

	statuses := map[models.Status]bool{}
	for _, a := range agreements {
		statuses[a.Status] = true
	}
	for _, want := range []models.Status{models.StatusPending, models.StatusApproved, models.StatusPaid} {
		if !statuses[want] {
			t.Errorf("seed is missing status %s", want)
		}
	}

	if slot.saves == 0 {
		t.Error("seed was not persisted")
	}
}

func TestNewLoadsExistingCollection(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []models.Agreement{{
		ID:             "abc123xyz",
		Title:          "Saved",
		Amount:         "42",
		Status:         models.StatusPending,
		CreatorAddress: "0x" + "b",
		CreatedAt:      createdAt,
	}}
	data, err := json.Marshal(existing)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	s := newTestStore(t, &memorySlot{data: data})

	got, ok := s.Get("abc123xyz")
	if !ok {
		t.Fatal("expected saved agreement to load")
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("createdAt not revived: got %v, want %v", got.CreatedAt, createdAt)
	}
	if len(s.List()) != 1 {
		t.Errorf("expected 1 agreement, got %d", len(s.List()))
	}
}

func TestNewFallsBackToSeedOnCorruptSlot(t *testing.T) {
	slot := &memorySlot{data: []byte("{not json")}
	s := newTestStore(t, slot)

	if len(s.List()) != 3 {
		t.Fatalf("expected seed fallback, got %d agreements", len(s.List()))
	}
	if slot.saves == 0 {
		t.Error("fallback seed was not persisted")
	}
}

func TestCreate(t *testing.T) {
	s := newTestStore(t, &memorySlot{})

	agreement, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !regexp.MustCompile(`^[a-z0-9]{9}$`).MatchString(agreement.ID) {
		t.Errorf("id %q is not a 9-character base36 token", agreement.ID)
	}
	if agreement.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", agreement.Status)
	}
	if agreement.ApprovedAt != nil || agreement.PaidAt != nil || agreement.TransactionHash != "" {
		t.Error("new agreement must not carry lifecycle state")
	}
	if agreement.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}

	stored, ok := s.Get(agreement.ID)
	if !ok {
		t.Fatal("created agreement not retrievable")
	}
	if stored.Status != models.StatusPending {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestCreateRetriesIDCollision(t *testing.T) {
	ids := []string{"collision1", "collision1", "fresh0001"}
	var calls int
	gen := func() string {
		id := ids[calls%len(ids)]
		calls++
		return id
	}

	s := newTestStore(t, &memorySlot{}, WithIDGenerator(gen))

	first, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if first.ID != "collision1" {
		t.Fatalf("first id = %q", first.ID)
	}

	second, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.ID != "fresh0001" {
		t.Errorf("expected collision retry to yield fresh0001, got %q", second.ID)
	}
}

func TestCreateExhaustsIDRetries(t *testing.T) {
	s := newTestStore(t, &memorySlot{}, WithIDGenerator(func() string { return "same00000" }))

	if _, err := s.Create(context.Background(), testFields()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := s.Create(context.Background(), testFields())
	if !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t, &memorySlot{})

	if _, ok := s.Get(""); ok {
		t.Error("empty id must not resolve")
	}
	if _, ok := s.Get("nosuchid1"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestApprove(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newTestStore(t, &memorySlot{}, WithNow(func() time.Time { return now }))

	agreement, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	approved, err := s.Approve(context.Background(), agreement.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(now) {
		t.Errorf("approvedAt = %v, want %v", approved.ApprovedAt, now)
	}

	// Repeated approve is rejected; ApprovedAt is never overwritten.
	_, err = s.Approve(context.Background(), agreement.ID)
	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.From != models.StatusApproved || transitionErr.To != models.StatusApproved {
		t.Errorf("transition error = %+v", transitionErr)
	}
}

func TestApproveUnknownID(t *testing.T) {
	s := newTestStore(t, &memorySlot{})
	if _, err := s.Approve(context.Background(), "nosuchid1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPay(t *testing.T) {
	s := newTestStore(t, &memorySlot{})

	agreement, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Pay straight from pending must be rejected: no skipping approved.
	_, err = s.Pay(context.Background(), agreement.ID, "0xdead")
	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError for pending pay, got %v", err)
	}

	if _, err := s.Approve(context.Background(), agreement.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	paid, err := s.Pay(context.Background(), agreement.ID, "0xhash")
	if err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	if paid.Status != models.StatusPaid {
		t.Errorf("status = %s, want paid", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("paidAt not set")
	}
	if paid.TransactionHash != "0xhash" {
		t.Errorf("transactionHash = %q", paid.TransactionHash)
	}

	// Nothing leaves paid.
	if _, err := s.Pay(context.Background(), agreement.ID, "0xother"); err == nil {
		t.Error("second pay must be rejected")
	}
	if _, err := s.Approve(context.Background(), agreement.ID); err == nil {
		t.Error("approve after paid must be rejected")
	}
}

func TestMutationPersistsCollection(t *testing.T) {
	slot := &memorySlot{}
	s := newTestStore(t, slot)

	savesBefore := slot.saves
	agreement, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if slot.saves != savesBefore+1 {
		t.Errorf("expected one persistence write after create, got %d", slot.saves-savesBefore)
	}

	var persisted []models.Agreement
	if err := json.Unmarshal(slot.data, &persisted); err != nil {
		t.Fatalf("persisted data unreadable: %v", err)
	}
	found := false
	for _, a := range persisted {
		if a.ID == agreement.ID {
			found = true
		}
	}
	if !found {
		t.Error("created agreement missing from persisted collection")
	}
}

func TestSlotWriteFailureDoesNotRollBack(t *testing.T) {
	slot := &memorySlot{saveErr: errors.New("disk full")}
	s := newTestStore(t, slot)

	agreement, err := s.Create(context.Background(), testFields())
	if err != nil {
		t.Fatalf("Create must succeed despite write failure: %v", err)
	}

	if _, ok := s.Get(agreement.ID); !ok {
		t.Error("in-memory mutation was rolled back on write failure")
	}
}

func TestAdopt(t *testing.T) {
	slot := &memorySlot{}
	s := newTestStore(t, slot)

	detached := models.Agreement{
		ID:             "remote001",
		Title:          "From link",
		Amount:         "1,000",
		Status:         models.StatusPending,
		CreatorAddress: "0xcc",
	}

	stored, inserted := s.Adopt(context.Background(), detached)
	if !inserted {
		t.Fatal("expected insert")
	}
	if stored.ID != "remote001" {
		t.Errorf("stored id = %q", stored.ID)
	}

	// Adopting an existing id keeps the local record.
	approved, err := s.Approve(context.Background(), "remote001")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	again, inserted := s.Adopt(context.Background(), detached)
	if inserted {
		t.Error("second adopt must not insert")
	}
	if again.Status != approved.Status {
		t.Errorf("adopt overwrote local state: %s", again.Status)
	}
}

func TestCloseFlushes(t *testing.T) {
	slot := &memorySlot{}
	s := newTestStore(t, slot)

	if _, err := s.Create(context.Background(), testFields()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	savesBefore := slot.saves
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if slot.saves != savesBefore+1 {
		t.Error("Close did not flush the collection")
	}

	slot.saveErr = errors.New("disk full")
	if err := s.Close(context.Background()); err == nil {
		t.Error("Close must surface flush failure")
	}
}

func TestNewAgreementID(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]{9}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewAgreementID()
		if !pattern.MatchString(id) {
			t.Fatalf("id %q does not match the 9-character base36 class", id)
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("ids look non-random: %d unique of 100", len(seen))
	}
}
