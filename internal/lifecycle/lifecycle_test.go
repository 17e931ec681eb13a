package lifecycle

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sahid-app/sah/internal/events"
	"github.com/sahid-app/sah/internal/linkcode"
	"github.com/sahid-app/sah/internal/models"
	"github.com/sahid-app/sah/internal/store"
)

const (
	creatorAddr   = "0x1234567890abcdef1234567890abcdef12345678"
	recipientAddr = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"
)

type memorySlot struct {
	data []byte
}

func (m *memorySlot) Load(ctx context.Context) ([]byte, error)    { return m.data, nil }
func (m *memorySlot) Save(ctx context.Context, data []byte) error { m.data = data; return nil }

type fakeWallet struct {
	connected bool
	address   string
	balance   float64
	deducted  []string
}

func (f *fakeWallet) Connected() bool { return f.connected }
func (f *fakeWallet) Address() string { return f.address }
func (f *fakeWallet) Balance() string { return models.FormatAmount(f.balance) }

func (f *fakeWallet) Deduct(ctx context.Context, amount string) error {
	value, err := models.ParseAmount(amount)
	if err != nil {
		return err
	}
	f.balance -= value
	f.deducted = append(f.deducted, amount)
	return nil
}

type recordingWaiter struct {
	waits []time.Duration
}

func (r *recordingWaiter) Wait(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

type fixture struct {
	service   *Service
	store     *store.Store
	wallet    *fakeWallet
	waiter    *recordingWaiter
	published []*events.Event
}

func newFixture(t *testing.T, w *fakeWallet) *fixture {
	t.Helper()

	s, err := store.New(context.Background(), &memorySlot{})
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}

	f := &fixture{store: s, wallet: w, waiter: &recordingWaiter{}}
	publisher := events.NewInMemoryPublisher()
	if err := publisher.Subscribe("test", events.Filter{}, func(event *events.Event) {
		f.published = append(f.published, event)
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	f.service = New(s, w, Config{
		BaseURL:      "https://sah.id",
		ApproveDelay: 2 * time.Second,
		WalletDelay:  2 * time.Second,
		NetworkDelay: 3 * time.Second,
	}, WithWaiter(f.waiter), WithPublisher(publisher))
	return f
}

func connectedWallet(balance float64) *fakeWallet {
	return &fakeWallet{connected: true, address: creatorAddr, balance: balance}
}

func (f *fixture) mustCreate(t *testing.T, input CreateInput) CreateResult {
	t.Helper()
	result, err := f.service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return result
}

func validInput() CreateInput {
	return CreateInput{
		Title:            "Website redesign",
		RecipientAddress: recipientAddr,
		Amount:           "1,000,000",
		Description:      "Full redesign of the landing page",
	}
}

func TestCreateStoresAgreementAndBuildsLink(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))

	result := f.mustCreate(t, validInput())
	if result.Agreement.Status != models.StatusPending {
		t.Errorf("status = %s", result.Agreement.Status)
	}
	if result.Agreement.CreatorAddress != creatorAddr {
		t.Errorf("creator = %q", result.Agreement.CreatorAddress)
	}
	if result.Agreement.Amount != "1,000,000" {
		t.Errorf("amount = %q", result.Agreement.Amount)
	}

	payload := linkcode.Decode(linkcode.TokenFromURL(result.ShareURL))
	if payload == nil {
		t.Fatalf("share URL %q does not decode", result.ShareURL)
	}
	if payload.ID != result.Agreement.ID {
		t.Errorf("link id = %q, want %q", payload.ID, result.Agreement.ID)
	}

	var created bool
	for _, event := range f.published {
		if event.Type == events.TypeAgreementCreated && event.AgreementID == result.Agreement.ID {
			created = true
		}
	}
	if !created {
		t.Error("no created event published")
	}
}

func TestCreateNormalizesAmountGrouping(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))

	input := validInput()
	input.Amount = "250000"
	result := f.mustCreate(t, input)
	if result.Agreement.Amount != "250,000" {
		t.Errorf("amount = %q, want grouped text", result.Agreement.Amount)
	}
}

func TestCreateRequiresConnectedWallet(t *testing.T) {
	f := newFixture(t, &fakeWallet{})

	_, err := f.service.Create(context.Background(), validInput())
	if !errors.Is(err, ErrWalletNotConnected) {
		t.Errorf("expected ErrWalletNotConnected, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"missing title", func(in *CreateInput) { in.Title = "" }, "title"},
		{"missing description", func(in *CreateInput) { in.Description = "" }, "description"},
		{"missing recipient", func(in *CreateInput) { in.RecipientAddress = "" }, "recipientAddress"},
		{"malformed recipient", func(in *CreateInput) { in.RecipientAddress = "0x123" }, "recipientAddress"},
		{"self recipient", func(in *CreateInput) { in.RecipientAddress = "0x" + strings.ToUpper(creatorAddr[2:]) }, "recipientAddress"},
		{"non numeric amount", func(in *CreateInput) { in.Amount = "banyak" }, "amount"},
		{"zero amount", func(in *CreateInput) { in.Amount = "0" }, "amount"},
		{"amount over balance", func(in *CreateInput) { in.Amount = "6,000,000" }, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, connectedWallet(5_000_000))

			input := validInput()
			tt.mutate(&input)

			_, err := f.service.Create(context.Background(), input)
			var verrs *models.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs.FieldMessage(tt.field) == "" {
				t.Errorf("no message recorded for field %q: %v", tt.field, verrs)
			}
		})
	}
}

func TestApproveByRecipient(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())

	approved, err := f.service.Approve(context.Background(), ApproveRequest{
		ID:               created.Agreement.ID,
		CandidateAddress: "0X" + strings.ToUpper(recipientAddr[2:]),
	})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s", approved.Status)
	}
	if approved.ApprovedAt == nil {
		t.Error("ApprovedAt not set")
	}
	if len(f.waiter.waits) != 1 || f.waiter.waits[0] != 2*time.Second {
		t.Errorf("waits = %v, want one approve delay", f.waiter.waits)
	}
}

func TestApproveRejectsNonRecipient(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		ID:               created.Agreement.ID,
		CandidateAddress: "0x9999999999999999999999999999999999999999",
	})
	if !errors.Is(err, ErrRecipientMismatch) {
		t.Fatalf("expected ErrRecipientMismatch, got %v", err)
	}
	if len(f.waiter.waits) != 0 {
		t.Error("identity check must run before any delay")
	}
	got, _ := f.store.Get(created.Agreement.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status changed to %s on rejected approve", got.Status)
	}
}

func TestApproveAdoptsLinkOnlyAgreement(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))

	payload := linkcode.Payload{
		ID:               "remotexyz",
		Title:            "From another device",
		RecipientAddress: recipientAddr,
		Amount:           "50,000",
		Description:      "sent via link",
		CreatorAddress:   "0x9999999999999999999999999999999999999999",
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	link, err := linkcode.BuildShareURL("https://sah.id", payload)
	if err != nil {
		t.Fatalf("BuildShareURL failed: %v", err)
	}

	approved, err := f.service.Approve(context.Background(), ApproveRequest{
		URL:              link,
		CandidateAddress: recipientAddr,
	})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s", approved.Status)
	}

	stored, ok := f.store.Get("remotexyz")
	if !ok {
		t.Fatal("agreement not adopted into store")
	}
	if stored.Status != models.StatusApproved {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestApproveTwiceRejected(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())

	req := ApproveRequest{ID: created.Agreement.ID, CandidateAddress: recipientAddr}
	if _, err := f.service.Approve(context.Background(), req); err != nil {
		t.Fatalf("first Approve failed: %v", err)
	}

	_, err := f.service.Approve(context.Background(), req)
	var transitionErr *store.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.From != models.StatusApproved {
		t.Errorf("From = %s", transitionErr.From)
	}
}

func TestApproveUnknownAgreement(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		ID:               "nosuchid1",
		CandidateAddress: recipientAddr,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPayFullFlow(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())
	if _, err := f.service.Approve(context.Background(), ApproveRequest{
		ID:               created.Agreement.ID,
		CandidateAddress: recipientAddr,
	}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	f.waiter.waits = nil
	f.published = nil

	paid, err := f.service.Pay(context.Background(), created.Agreement.ID)
	if err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	if paid.Status != models.StatusPaid {
		t.Errorf("status = %s", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("PaidAt not set")
	}
	if matched, _ := regexp.MatchString(`^0x[0-9a-f]{64}$`, paid.TransactionHash); !matched {
		t.Errorf("transaction hash = %q", paid.TransactionHash)
	}

	wantWaits := []time.Duration{2 * time.Second, 3 * time.Second}
	if len(f.waiter.waits) != 2 || f.waiter.waits[0] != wantWaits[0] || f.waiter.waits[1] != wantWaits[1] {
		t.Errorf("waits = %v, want wallet then network delay", f.waiter.waits)
	}

	if len(f.wallet.deducted) != 1 || f.wallet.deducted[0] != "1,000,000" {
		t.Errorf("deducted = %v", f.wallet.deducted)
	}
	if f.wallet.balance != 4_000_000 {
		t.Errorf("balance = %v", f.wallet.balance)
	}

	var notices []string
	for _, event := range f.published {
		if event.Type == events.TypeNotice {
			notices = append(notices, event.Message)
		}
	}
	if len(notices) != 2 ||
		notices[0] != "Membuka wallet untuk konfirmasi..." ||
		notices[1] != "Mengirim transaksi ke blockchain..." {
		t.Errorf("notices = %v", notices)
	}
}

func TestPayRequiresApproval(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())
	f.waiter.waits = nil

	_, err := f.service.Pay(context.Background(), created.Agreement.ID)
	if !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
	if len(f.waiter.waits) != 0 {
		t.Error("no delay should run for an unapproved agreement")
	}
}

func TestPayInsufficientBalanceFailsBeforeDelays(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())
	if _, err := f.service.Approve(context.Background(), ApproveRequest{
		ID:               created.Agreement.ID,
		CandidateAddress: recipientAddr,
	}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	f.wallet.balance = 500_000
	f.waiter.waits = nil

	_, err := f.service.Pay(context.Background(), created.Agreement.ID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(f.waiter.waits) != 0 {
		t.Errorf("waits = %v, balance check must precede delays", f.waiter.waits)
	}
	if len(f.wallet.deducted) != 0 {
		t.Error("nothing should be deducted on a rejected payment")
	}
}

func TestPayTwiceRejected(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))
	created := f.mustCreate(t, validInput())
	req := ApproveRequest{ID: created.Agreement.ID, CandidateAddress: recipientAddr}
	if _, err := f.service.Approve(context.Background(), req); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := f.service.Pay(context.Background(), created.Agreement.ID); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}

	_, err := f.service.Pay(context.Background(), created.Agreement.ID)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestPayUnknownAgreement(t *testing.T) {
	f := newFixture(t, connectedWallet(5_000_000))

	_, err := f.service.Pay(context.Background(), "nosuchid1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSleepWaiterHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepWaiter{}.Wait(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewTransactionHashShape(t *testing.T) {
	pattern := regexp.MustCompile(`^0x[0-9a-f]{64}$`)
	if hash := NewTransactionHash(); !pattern.MatchString(hash) {
		t.Errorf("hash = %q", hash)
	}
	if NewTransactionHash() == NewTransactionHash() {
		t.Error("hashes should not repeat")
	}
}
