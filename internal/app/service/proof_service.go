package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/infra/prometheus"
	"github.com/hyunjae-dev/prooflink/internal/storage"
)

// RecordResult is returned from a successful proof upload.
type RecordResult struct {
	Status    string          `json:"status"`
	ProofID   uint            `json:"proof_id"`
	ProofType model.ProofType `json:"proof_type"`
	Message   string          `json:"message"`
}

// ProofService validates and persists proof uploads, and performs the
// terminal-proof side effects (status flip, token burn, dual dispatch).
type ProofService struct {
	logger     *zap.Logger
	cfg        *config.Config
	tokens     *TokenService
	proofs     repository.ProofRepository
	orders     repository.OrderRepository
	store      storage.Store
	dispatcher Dispatcher
}

// NewProofService wires the proof recorder.
func NewProofService(
	logger *zap.Logger,
	cfg *config.Config,
	tokens *TokenService,
	proofs repository.ProofRepository,
	orders repository.OrderRepository,
	store storage.Store,
	dispatcher Dispatcher,
) *ProofService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProofService{
		logger:     logger,
		cfg:        cfg,
		tokens:     tokens,
		proofs:     proofs,
		orders:     orders,
		store:      store,
		dispatcher: dispatcher,
	}
}

// Record validates preconditions in a fixed order (token, duplicate type,
// content type, size), stores the file under a generated key, and persists
// the proof. Only an AFTER proof flips the order to PROOF_UPLOADED, burns
// the token, and triggers notifications; any other type leaves the token
// valid so a BEFORE/AFTER sequence works with a single QR code.
func (s *ProofService) Record(ctx context.Context, token string, proofType model.ProofType, file io.Reader, size int64, contentType, filename string) (*RecordResult, error) {
	if !proofType.Valid() {
		proofType = model.ProofTypeAfter
	}

	order, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	exists, err := s.proofs.ExistsByOrderAndType(ctx, order.ID, proofType)
	if err != nil {
		return nil, fmt.Errorf("check existing proof: %w", err)
	}
	if exists {
		return nil, ErrDuplicateProofType
	}

	if !s.allowedType(contentType) {
		return nil, ErrInvalidFileType
	}
	if size > s.cfg.Upload.MaxBytes {
		return nil, ErrFileTooLarge
	}

	key := storage.ObjectKey("proofs", filename, contentType, time.Now())
	if err := s.store.Save(ctx, key, file, size, contentType); err != nil {
		return nil, fmt.Errorf("save proof file: %w", err)
	}

	proof := &model.Proof{
		OrderID:   order.ID,
		ProofType: proofType,
		FileKey:   key,
		FileSize:  size,
		MimeType:  contentType,
	}
	if err := s.proofs.Create(ctx, proof); err != nil {
		// Keep storage consistent with the database.
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("failed to remove orphaned proof file",
				zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("create proof: %w", err)
	}

	prometheus.ProofUploads.WithLabelValues(string(proofType)).Inc()
	s.logger.Info("proof recorded",
		zap.Uint("order_id", order.ID),
		zap.String("proof_type", string(proofType)),
		zap.Int64("size", size),
		zap.String("token_prefix", tokenPrefix(token)),
	)

	if proofType == model.ProofTypeAfter {
		if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderStatusProofUploaded); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		if err := s.tokens.InvalidateAfterProof(ctx, token); err != nil {
			return nil, fmt.Errorf("invalidate token: %w", err)
		}
		// Delivery is fire-and-forget relative to the upload; a dispatch
		// failure is logged, never surfaced to the courier.
		if err := s.dispatcher.DispatchDual(ctx, order); err != nil {
			s.logger.Error("failed to dispatch notifications",
				zap.Uint("order_id", order.ID), zap.Error(err))
		}
	}

	return &RecordResult{
		Status:    "success",
		ProofID:   proof.ID,
		ProofType: proofType,
		Message:   fmt.Sprintf("%s proof uploaded", proofType),
	}, nil
}

func (s *ProofService) allowedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range s.cfg.Upload.AllowedTypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
