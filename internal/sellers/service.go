package sellers

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db"
	"github.com/palletspaces/backend/pkg/db/models"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/payment"
)

// Service manages seller payout onboarding and the verification gate.
type Service interface {
	// StartVerification ensures the seller has a payout account and returns
	// a fresh onboarding link. The link is empty when no gateway is
	// configured and onboarding cannot proceed.
	StartVerification(ctx context.Context, userID int64) (string, error)

	// RefreshStatus re-reads the payout account at the gateway and persists
	// the derived verification flag.
	RefreshStatus(ctx context.Context, userID int64) (*models.User, error)

	// IsVerified reports whether the seller may publish listings.
	IsVerified(ctx context.Context, userID int64) (bool, error)
}

type service struct {
	repo    Repository
	gateway payment.Gateway
	baseURL string
	logg    *logger.Logger
}

// NewService builds a sellers service with the required dependencies.
func NewService(repo Repository, gateway payment.Gateway, baseURL string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &service{repo: repo, gateway: gateway, baseURL: baseURL, logg: logg}, nil
}

func (s *service) StartVerification(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	accountID := ""
	if user.PayoutAccountID != nil {
		accountID = *user.PayoutAccountID
	}
	if accountID == "" {
		accountID, err = s.gateway.EnsurePayoutAccount(ctx, user.Email)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout account")
		}
		if accountID == "" {
			// Gateway is not configured; there is nothing to onboard against.
			if s.logg != nil {
				s.logg.Warn(ctx, "payout gateway not configured, onboarding unavailable")
			}
			return "", nil
		}
		if err := s.repo.SetPayoutAccount(ctx, user.ID, accountID); err != nil {
			if db.IsUniqueViolation(err, "payout_account_id") {
				return "", pkgerrors.New(pkgerrors.CodeConflict, "payout account already linked to another seller")
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payout account")
		}
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("payout account %s attached to user %d", accountID, user.ID))
		}
	}

	refreshURL := fmt.Sprintf("%s/sellers/verify", s.baseURL)
	returnURL := fmt.Sprintf("%s/sellers/verified", s.baseURL)
	link, err := s.gateway.CreateOnboardingLink(ctx, accountID, refreshURL, returnURL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create onboarding link")
	}
	return link, nil
}

func (s *service) RefreshStatus(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.PayoutAccountID == nil || *user.PayoutAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payout onboarding not started")
	}

	account, err := s.gateway.FetchPayoutAccount(ctx, *user.PayoutAccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payout account")
	}

	verified := account.Verified()
	if verified != user.PayoutVerified {
		if err := s.repo.SetVerification(ctx, user.ID, verified); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification")
		}
		user.PayoutVerified = verified
	}
	return user, nil
}

func (s *service) IsVerified(ctx context.Context, userID int64) (bool, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user.PayoutVerified, nil
}
