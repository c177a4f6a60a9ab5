package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
)

const (
	defaultCodeLength    = 7
	codeCollisionRetries = 12
	// lastResortExtra lengthens the code when every retry collided.
	lastResortExtra = 2
)

// ShortLinkService creates and resolves the per-order short links embedded
// in notification messages.
type ShortLinkService struct {
	logger     *zap.Logger
	repo       repository.ShortLinkRepository
	orders     repository.OrderRepository
	appCfg     config.AppConfig
	codeLength int
}

// NewShortLinkService wires the resolver. codeLength <= 0 selects the
// default.
func NewShortLinkService(logger *zap.Logger, repo repository.ShortLinkRepository, orders repository.OrderRepository, appCfg config.AppConfig, codeLength int) *ShortLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codeLength <= 0 {
		codeLength = defaultCodeLength
	}
	return &ShortLinkService{logger: logger, repo: repo, orders: orders, appCfg: appCfg, codeLength: codeLength}
}

// GenerateCode draws length characters from the restricted alphabet using
// a cryptographically secure source.
func GenerateCode(length int) (string, error) {
	alphabet := model.ShortCodeAlphabet
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// ResolveOrCreate returns the order's short link, creating one when
// missing. A token change (forced reissue) updates the stored target in
// place; the code itself never changes.
func (s *ShortLinkService) ResolveOrCreate(ctx context.Context, orderID uint, token string) (*model.ShortLink, error) {
	existing, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, repository.ErrShortLinkNotFound) {
		return nil, fmt.Errorf("load short link: %w", err)
	}
	if existing != nil {
		if existing.TargetToken != token {
			if err := s.repo.UpdateTargetToken(ctx, existing.ID, token); err != nil {
				return nil, fmt.Errorf("update short link target: %w", err)
			}
			existing.TargetToken = token
		}
		return existing, nil
	}

	for attempt := 0; attempt < codeCollisionRetries; attempt++ {
		code, err := GenerateCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		if taken, err := s.codeTaken(ctx, code); err != nil {
			return nil, err
		} else if taken {
			continue
		}
		link := &model.ShortLink{
			Code:        code,
			OrderID:     orderID,
			TargetPath:  "/p",
			TargetToken: token,
		}
		if err := s.repo.Create(ctx, link); err != nil {
			return nil, fmt.Errorf("create short link: %w", err)
		}
		return link, nil
	}

	// Last resort: a longer code makes a fresh collision all but impossible.
	code, err := GenerateCode(s.codeLength + lastResortExtra)
	if err != nil {
		return nil, err
	}
	link := &model.ShortLink{
		Code:        code,
		OrderID:     orderID,
		TargetPath:  "/p",
		TargetToken: token,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create short link: %w", err)
	}
	s.logger.Warn("short code collisions exhausted, used longer code",
		zap.Uint("order_id", orderID), zap.Int("length", s.codeLength+lastResortExtra))
	return link, nil
}

func (s *ShortLinkService) codeTaken(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.GetByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrShortLinkNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("check code: %w", err)
}

// Resolve looks up a code (case-normalized) and bumps click metrics.
// Metric failures are logged and swallowed; resolution must not depend on
// them.
func (s *ShortLinkService) Resolve(ctx context.Context, code string) (*model.ShortLink, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, repository.ErrShortLinkNotFound
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RecordClick(ctx, link.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to record short link click",
			zap.String("code", code), zap.Error(err))
	}
	return link, nil
}

// TargetURL builds the proof-page URL a resolved link redirects to. The
// base follows the owning organization's white-label domain when one is
// set, so brand-hosted links stay on the brand host.
func (s *ShortLinkService) TargetURL(ctx context.Context, link *model.ShortLink) string {
	var org *model.Organization
	if s.orders != nil {
		if order, err := s.orders.GetByID(ctx, link.OrderID); err == nil {
			org = order.Organization
		} else {
			s.logger.Warn("failed to load order for redirect base",
				zap.Uint("order_id", link.OrderID), zap.Error(err))
		}
	}
	path := link.TargetPath
	if path == "" {
		path = "/p"
	}
	return fmt.Sprintf("%s%s/%s", shortBaseForOrder(org, s.appCfg), path, link.TargetToken)
}
