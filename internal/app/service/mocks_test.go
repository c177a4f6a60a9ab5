package service

import (
	"context"
	"io"
	"time"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/queue"
)

type mockOrderRepository struct {
	getFn          func(ctx context.Context, id uint) (*model.Order, error)
	updateStatusFn func(ctx context.Context, id uint, status model.OrderStatus) error
	listAwaitingFn func(ctx context.Context, organizationID uint, tokenIssuedBefore time.Time) ([]model.Order, error)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockOrderRepository) ListAwaitingProof(ctx context.Context, organizationID uint, tokenIssuedBefore time.Time) ([]model.Order, error) {
	if m.listAwaitingFn != nil {
		return m.listAwaitingFn(ctx, organizationID, tokenIssuedBefore)
	}
	return nil, nil
}

type mockTokenRepository struct {
	createFn       func(ctx context.Context, token *model.ProofToken) error
	getByTokenFn   func(ctx context.Context, token string) (*model.ProofToken, error)
	getByOrderFn   func(ctx context.Context, orderID uint) (*model.ProofToken, error)
	deleteByOrder  func(ctx context.Context, orderID uint) error
	invalidateFn   func(ctx context.Context, token string, revokedAt *time.Time) error
}

func (m *mockTokenRepository) Create(ctx context.Context, token *model.ProofToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepository) GetByToken(ctx context.Context, token string) (*model.ProofToken, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, repository.ErrTokenNotFound
}

func (m *mockTokenRepository) GetByOrderID(ctx context.Context, orderID uint) (*model.ProofToken, error) {
	if m.getByOrderFn != nil {
		return m.getByOrderFn(ctx, orderID)
	}
	return nil, repository.ErrTokenNotFound
}

func (m *mockTokenRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	if m.deleteByOrder != nil {
		return m.deleteByOrder(ctx, orderID)
	}
	return nil
}

func (m *mockTokenRepository) Invalidate(ctx context.Context, token string, revokedAt *time.Time) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, token, revokedAt)
	}
	return nil
}

type mockProofRepository struct {
	createFn func(ctx context.Context, proof *model.Proof) error
	listFn   func(ctx context.Context, orderID uint) ([]model.Proof, error)
	existsFn func(ctx context.Context, orderID uint, proofType model.ProofType) (bool, error)
}

func (m *mockProofRepository) Create(ctx context.Context, proof *model.Proof) error {
	if m.createFn != nil {
		return m.createFn(ctx, proof)
	}
	return nil
}

func (m *mockProofRepository) ListByOrder(ctx context.Context, orderID uint) ([]model.Proof, error) {
	if m.listFn != nil {
		return m.listFn(ctx, orderID)
	}
	return nil, nil
}

func (m *mockProofRepository) ExistsByOrderAndType(ctx context.Context, orderID uint, proofType model.ProofType) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, orderID, proofType)
	}
	return false, nil
}

type mockNotificationRepository struct {
	created []*model.Notification
	updated []*model.Notification

	createFn func(ctx context.Context, n *model.Notification) error
	updateFn func(ctx context.Context, n *model.Notification) error
	listFn   func(ctx context.Context, orderID uint) ([]model.Notification, error)
	countFn  func(ctx context.Context, orderID uint, role model.NotificationRole) (int64, error)
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, n); err != nil {
			return err
		}
	}
	n.ID = uint(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepository) Update(ctx context.Context, n *model.Notification) error {
	if m.updateFn != nil {
		if err := m.updateFn(ctx, n); err != nil {
			return err
		}
	}
	m.updated = append(m.updated, n)
	return nil
}

func (m *mockNotificationRepository) ListByOrder(ctx context.Context, orderID uint) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, orderID)
	}
	return nil, nil
}

func (m *mockNotificationRepository) CountByOrderAndRole(ctx context.Context, orderID uint, role model.NotificationRole) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, orderID, role)
	}
	return 0, nil
}

type mockShortLinkRepository struct {
	createFn       func(ctx context.Context, link *model.ShortLink) error
	getByCodeFn    func(ctx context.Context, code string) (*model.ShortLink, error)
	getByOrderFn   func(ctx context.Context, orderID uint) (*model.ShortLink, error)
	updateTargetFn func(ctx context.Context, id uint, token string) error
	recordClickFn  func(ctx context.Context, id uint, at time.Time) error
}

func (m *mockShortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockShortLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, repository.ErrShortLinkNotFound
}

func (m *mockShortLinkRepository) GetByOrderID(ctx context.Context, orderID uint) (*model.ShortLink, error) {
	if m.getByOrderFn != nil {
		return m.getByOrderFn(ctx, orderID)
	}
	return nil, repository.ErrShortLinkNotFound
}

func (m *mockShortLinkRepository) UpdateTargetToken(ctx context.Context, id uint, token string) error {
	if m.updateTargetFn != nil {
		return m.updateTargetFn(ctx, id, token)
	}
	return nil
}

func (m *mockShortLinkRepository) RecordClick(ctx context.Context, id uint, at time.Time) error {
	if m.recordClickFn != nil {
		return m.recordClickFn(ctx, id, at)
	}
	return nil
}

type mockEnqueuer struct {
	payloads []queue.DeliverPayload
	err      error
}

func (m *mockEnqueuer) EnqueueDeliver(ctx context.Context, payload queue.DeliverPayload) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}

type mockStore struct {
	saved   []string
	deleted []string

	saveFn func(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

func (m *mockStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, key, r, size, contentType); err != nil {
			return err
		}
	}
	m.saved = append(m.saved, key)
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) URL(key string) string { return "http://files.test/" + key }

type mockDispatcher struct {
	orders []*model.Order
	err    error
}

func (m *mockDispatcher) DispatchDual(ctx context.Context, order *model.Order) error {
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, order)
	return nil
}
