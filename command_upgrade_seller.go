package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type UpgradeSellerMessage struct {
	UserID      string `json:"userId"`
	StoreName   string `json:"storeName"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	OnResponse  func(resp *UpgradeSellerResponse)
}

func (e UpgradeSellerMessage) Type() string { return "user.upgrade_seller" }

type UpgradeSellerResponse struct {
	User *User
}

type UpgradeSellerHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewUpgradeSellerHandler(repo RepositoryManager) *UpgradeSellerHandler {
	return &UpgradeSellerHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *UpgradeSellerHandler) WithLogger(logger Logger) *UpgradeSellerHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpgradeSellerHandler) Execute(ctx context.Context, event UpgradeSellerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during seller upgrade",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpgradeSellerHandler) execute(ctx context.Context, event UpgradeSellerMessage) error {
	var updated *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByID(ctx, event.UserID)
		if err != nil {
			if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for seller upgrade")
		}

		seller := &Seller{
			StoreName:   event.StoreName,
			Description: event.Description,
			Logo:        event.Logo,
		}

		// re-upgrading keeps the accumulated store reputation
		if user.Seller != nil {
			seller.Rating = user.Seller.Rating
			seller.ReviewCount = user.Seller.ReviewCount
			if seller.Logo == "" {
				seller.Logo = user.Seller.Logo
			}
		}

		record := &User{
			ID:     user.ID,
			Role:   RoleSeller,
			Seller: seller,
		}

		if updated, err = h.repo.Users().UpdateTx(ctx, tx, record); err != nil {
			if IsDuplicateKey(err) {
				return goerrors.New("Store name already exists", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict).
					WithTextCode("STORE_NAME_EXISTS")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upgrade user to seller")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "seller upgrade transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpgradeSellerResponse{User: updated})
	}

	return nil
}
