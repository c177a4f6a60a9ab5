package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
)

type proofFixture struct {
	svc        *ProofService
	orders     *mockOrderRepository
	tokens     *mockTokenRepository
	proofs     *mockProofRepository
	store      *mockStore
	dispatcher *mockDispatcher

	statusUpdates []model.OrderStatus
	invalidated   []string
}

func newProofFixture(t *testing.T) *proofFixture {
	t.Helper()
	f := &proofFixture{
		orders:     &mockOrderRepository{},
		tokens:     &mockTokenRepository{},
		proofs:     &mockProofRepository{},
		store:      &mockStore{},
		dispatcher: &mockDispatcher{},
	}
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) {
		return &model.Order{ID: id, OrderNumber: "ORD-1", Status: model.OrderStatusTokenIssued}, nil
	}
	f.orders.updateStatusFn = func(ctx context.Context, id uint, status model.OrderStatus) error {
		f.statusUpdates = append(f.statusUpdates, status)
		return nil
	}
	f.tokens.getByTokenFn = func(ctx context.Context, token string) (*model.ProofToken, error) {
		if token == "valid-token" {
			return &model.ProofToken{Token: token, OrderID: 1, IsValid: true}, nil
		}
		return nil, repository.ErrTokenNotFound
	}
	f.tokens.invalidateFn = func(ctx context.Context, token string, at *time.Time) error {
		return nil
	}

	cfg := testConfig()
	tokenSvc := NewTokenService(nil, cfg, f.orders, f.tokens, f.proofs, nil)
	f.svc = NewProofService(nil, cfg, tokenSvc, f.proofs, f.orders, f.store, f.dispatcher)
	return f
}

func (f *proofFixture) record(t *testing.T, token string, proofType model.ProofType) (*RecordResult, error) {
	t.Helper()
	data := []byte("jpeg bytes")
	return f.svc.Record(context.Background(), token, proofType,
		bytes.NewReader(data), int64(len(data)), "image/jpeg", "photo.jpg")
}

func TestProofService_Record_InvalidToken(t *testing.T) {
	f := newProofFixture(t)
	if _, err := f.record(t, "missing", model.ProofTypeAfter); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if len(f.store.saved) != 0 {
		t.Fatal("nothing should be stored for an invalid token")
	}
}

func TestProofService_Record_DuplicateType(t *testing.T) {
	f := newProofFixture(t)
	f.proofs.existsFn = func(ctx context.Context, orderID uint, proofType model.ProofType) (bool, error) {
		return true, nil
	}
	if _, err := f.record(t, "valid-token", model.ProofTypeAfter); !errors.Is(err, ErrDuplicateProofType) {
		t.Fatalf("expected ErrDuplicateProofType, got %v", err)
	}
}

func TestProofService_Record_InvalidContentType(t *testing.T) {
	f := newProofFixture(t)
	data := []byte("plain text")
	_, err := f.svc.Record(context.Background(), "valid-token", model.ProofTypeAfter,
		bytes.NewReader(data), int64(len(data)), "text/plain", "notes.txt")
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
}

func TestProofService_Record_FileTooLarge(t *testing.T) {
	f := newProofFixture(t)
	_, err := f.svc.Record(context.Background(), "valid-token", model.ProofTypeAfter,
		bytes.NewReader(nil), 2<<20, "image/jpeg", "huge.jpg")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestProofService_Record_UnknownTypeDefaultsToAfter(t *testing.T) {
	f := newProofFixture(t)
	res, err := f.record(t, "valid-token", model.ProofType("SELFIE"))
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if res.ProofType != model.ProofTypeAfter {
		t.Fatalf("expected AFTER default, got %q", res.ProofType)
	}
}

func TestProofService_Record_AfterProofTerminalEffects(t *testing.T) {
	f := newProofFixture(t)
	var invalidatedToken string
	f.tokens.invalidateFn = func(ctx context.Context, token string, at *time.Time) error {
		invalidatedToken = token
		return nil
	}

	res, err := f.record(t, "valid-token", model.ProofTypeAfter)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if res.Status != "success" {
		t.Fatalf("unexpected status %q", res.Status)
	}
	if len(f.store.saved) != 1 {
		t.Fatalf("expected one stored file, got %d", len(f.store.saved))
	}
	if len(f.statusUpdates) != 1 || f.statusUpdates[0] != model.OrderStatusProofUploaded {
		t.Fatalf("expected PROOF_UPLOADED, got %v", f.statusUpdates)
	}
	if invalidatedToken != "valid-token" {
		t.Fatalf("expected token burned, got %q", invalidatedToken)
	}
	if len(f.dispatcher.orders) != 1 {
		t.Fatalf("expected one dual dispatch, got %d", len(f.dispatcher.orders))
	}
}

func TestProofService_Record_BeforeProofHasNoSideEffects(t *testing.T) {
	f := newProofFixture(t)
	invalidated := false
	f.tokens.invalidateFn = func(ctx context.Context, token string, at *time.Time) error {
		invalidated = true
		return nil
	}

	res, err := f.record(t, "valid-token", model.ProofTypeBefore)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if res.ProofType != model.ProofTypeBefore {
		t.Fatalf("unexpected proof type %q", res.ProofType)
	}
	if len(f.statusUpdates) != 0 {
		t.Fatalf("BEFORE must not change status, got %v", f.statusUpdates)
	}
	if invalidated {
		t.Fatal("BEFORE must leave the token valid")
	}
	if len(f.dispatcher.orders) != 0 {
		t.Fatal("BEFORE must not trigger notifications")
	}
}

func TestProofService_Record_DispatchFailureNotSurfaced(t *testing.T) {
	f := newProofFixture(t)
	f.dispatcher.err = errors.New("queue down")

	if _, err := f.record(t, "valid-token", model.ProofTypeAfter); err != nil {
		t.Fatalf("dispatch failure must not surface to the uploader: %v", err)
	}
}

func TestProofService_Record_CreateFailureCleansUpFile(t *testing.T) {
	f := newProofFixture(t)
	f.proofs.createFn = func(ctx context.Context, proof *model.Proof) error {
		return errors.New("insert failed")
	}

	if _, err := f.record(t, "valid-token", model.ProofTypeAfter); err == nil {
		t.Fatal("expected error")
	}
	if len(f.store.saved) != 1 || len(f.store.deleted) != 1 {
		t.Fatalf("expected orphaned file removal, saved=%v deleted=%v", f.store.saved, f.store.deleted)
	}
	if f.store.saved[0] != f.store.deleted[0] {
		t.Fatal("expected the same key saved and deleted")
	}
}
