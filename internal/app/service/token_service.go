package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
)

const minTokenBytes = 16

// IssueResult is returned from token issuance for the admin boundary.
type IssueResult struct {
	Token          string `json:"token"`
	TokenValid     bool   `json:"token_valid"`
	UploadURL      string `json:"upload_url"`
	PublicProofURL string `json:"public_proof_url"`
}

// PublicSummary is the PII-free order summary behind a token.
type PublicSummary struct {
	OrderNumber      string `json:"order_number"`
	Context          string `json:"context"`
	OrganizationName string `json:"organization_name"`
	OrganizationLogo string `json:"organization_logo"`
	HideBranding     bool   `json:"hide_branding"`
	AssetMeta        []byte `json:"asset_meta,omitempty"`
	HasBeforeProof   bool   `json:"has_before_proof"`
	HasAfterProof    bool   `json:"has_after_proof"`
}

// PublicProofItem is one proof entry on the public proof page.
type PublicProofItem struct {
	ProofType  model.ProofType `json:"proof_type"`
	ProofURL   string          `json:"proof_url"`
	UploadedAt time.Time       `json:"uploaded_at"`
}

// PublicProofs lists an order's proofs in display order, with a primary
// proof kept for single-proof consumers (first AFTER, else first).
type PublicProofs struct {
	OrderNumber      string            `json:"order_number"`
	Context          string            `json:"context"`
	OrganizationName string            `json:"organization_name"`
	OrganizationLogo string            `json:"organization_logo"`
	HideBranding     bool              `json:"hide_branding"`
	Proofs           []PublicProofItem `json:"proofs"`
	ProofURL         string            `json:"proof_url"`
	UploadedAt       time.Time         `json:"uploaded_at"`
}

// TokenService manages the single-use proof token lifecycle.
type TokenService struct {
	logger      *zap.Logger
	cfg         *config.Config
	orders      repository.OrderRepository
	tokens      repository.TokenRepository
	proofs      repository.ProofRepository
	proofURLFor func(key string) string
	tokenBytes  int
}

// NewTokenService wires the token lifecycle manager. proofURLFor maps a
// stored file key to its public URL (storage driver dependent).
func NewTokenService(
	logger *zap.Logger,
	cfg *config.Config,
	orders repository.OrderRepository,
	tokens repository.TokenRepository,
	proofs repository.ProofRepository,
	proofURLFor func(key string) string,
) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenBytes := cfg.Security.TokenLength
	if tokenBytes < minTokenBytes {
		tokenBytes = minTokenBytes
	}
	if proofURLFor == nil {
		proofURLFor = func(key string) string { return key }
	}
	return &TokenService{
		logger:      logger,
		cfg:         cfg,
		orders:      orders,
		tokens:      tokens,
		proofs:      proofs,
		proofURLFor: proofURLFor,
		tokenBytes:  tokenBytes,
	}
}

// GenerateToken returns a URL-safe token from a secure random source.
// Collisions are left to the unique index; at this entropy they are
// negligible.
func (s *TokenService) GenerateToken() (string, error) {
	buf := make([]byte, s.tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue returns the order's valid token, creating one when none exists.
// With force a new token replaces the old one: the existing row is deleted
// first so the per-order unique index holds, and the old value is never
// reactivated.
func (s *TokenService) Issue(ctx context.Context, orderID uint, force bool) (*IssueResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.tokens.GetByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return nil, fmt.Errorf("load token: %w", err)
	}

	if existing != nil && existing.IsValid && !force {
		return s.issueResult(existing.Token), nil
	}

	if existing != nil {
		if err := s.tokens.DeleteByOrderID(ctx, orderID); err != nil {
			return nil, fmt.Errorf("delete token: %w", err)
		}
	}

	value, err := s.GenerateToken()
	if err != nil {
		return nil, err
	}
	row := &model.ProofToken{
		Token:   value,
		OrderID: orderID,
		IsValid: true,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderStatusTokenIssued); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("token issued",
		zap.Uint("order_id", orderID),
		zap.Bool("forced", force),
		zap.String("token_prefix", tokenPrefix(value)),
	)
	return s.issueResult(value), nil
}

func (s *TokenService) issueResult(token string) *IssueResult {
	base := s.cfg.App.WebBaseURL
	return &IssueResult{
		Token:          token,
		TokenValid:     true,
		UploadURL:      fmt.Sprintf("%s/proof/%s", base, token),
		PublicProofURL: fmt.Sprintf("%s/p/%s", base, token),
	}
}

// Validate resolves a token to its order. Unknown and revoked tokens are
// indistinguishable to the caller: both return ErrTokenInvalid.
func (s *TokenService) Validate(ctx context.Context, token string) (*model.Order, error) {
	row, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !row.IsValid {
		return nil, ErrTokenInvalid
	}
	return s.orders.GetByID(ctx, row.OrderID)
}

// Revoke marks a token invalid with a revocation timestamp. Returns false
// when the token is unknown or already invalid; never an error for those.
func (s *TokenService) Revoke(ctx context.Context, token string) (bool, error) {
	row, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return false, nil
		}
		return false, err
	}
	if !row.IsValid {
		return false, nil
	}
	now := time.Now().UTC()
	if err := s.tokens.Invalidate(ctx, token, &now); err != nil {
		return false, err
	}
	s.logger.Info("token revoked", zap.String("token_prefix", tokenPrefix(token)))
	return true, nil
}

// InvalidateAfterProof consumes the token after the terminal proof upload.
// No-op when the token is already invalid or unknown.
func (s *TokenService) InvalidateAfterProof(ctx context.Context, token string) error {
	err := s.tokens.Invalidate(ctx, token, nil)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil
	}
	return err
}

// Summary builds the PII-free landing summary for a token.
func (s *TokenService) Summary(ctx context.Context, token string) (*PublicSummary, error) {
	order, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	proofs, err := s.proofs.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}

	summary := &PublicSummary{
		OrderNumber: order.OrderNumber,
		Context:     order.Context,
		AssetMeta:   order.AssetMeta,
	}
	if org := order.Organization; org != nil {
		summary.OrganizationName = org.DisplayName()
		summary.OrganizationLogo = org.DisplayLogo()
		summary.HideBranding = org.HideBranding
	}
	for _, p := range proofs {
		switch p.ProofType {
		case model.ProofTypeBefore:
			summary.HasBeforeProof = true
		case model.ProofTypeAfter:
			summary.HasAfterProof = true
		}
	}
	return summary, nil
}

// Proofs builds the public proof page data. Unlike Validate, a consumed
// token still resolves here: the proof page outlives the upload window.
func (s *TokenService) Proofs(ctx context.Context, token string) (*PublicProofs, error) {
	row, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, row.OrderID)
	if err != nil {
		return nil, err
	}
	proofs, err := s.proofs.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	if len(proofs) == 0 {
		return nil, ErrTokenInvalid
	}

	items := make([]PublicProofItem, 0, len(proofs))
	for _, p := range proofs {
		items = append(items, PublicProofItem{
			ProofType:  p.ProofType,
			ProofURL:   s.proofURLFor(p.FileKey),
			UploadedAt: p.UploadedAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ProofType.Rank() < items[j].ProofType.Rank()
	})

	primary := items[0]
	for _, item := range items {
		if item.ProofType == model.ProofTypeAfter {
			primary = item
			break
		}
	}

	result := &PublicProofs{
		OrderNumber: order.OrderNumber,
		Context:     order.Context,
		Proofs:      items,
		ProofURL:    primary.ProofURL,
		UploadedAt:  primary.UploadedAt,
	}
	if org := order.Organization; org != nil {
		result.OrganizationName = org.DisplayName()
		result.OrganizationLogo = org.DisplayLogo()
		result.HideBranding = org.HideBranding
	}
	return result, nil
}

// tokenPrefix truncates a token for logs.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
