package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	ResetToken string
	Success    bool
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	renderer *EmailRenderer
	baseURL  string
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, codec *TokenCodec, mailer Mailer, renderer *EmailRenderer, baseURL string) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		codec:    codec,
		mailer:   mailer,
		renderer: renderer,
		baseURL:  baseURL,
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return goerrors.New("No user found with this email", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithTextCode("USER_NOT_FOUND")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.codec.IssueReset(user.ID.String())
	if err != nil {
		return err
	}

	if h.mailer != nil && h.renderer != nil {
		body, err := h.renderer.Render(TemplateResetPassword, map[string]any{
			"name": user.FullName(),
			"link": h.baseURL + "/reset-password/" + token,
		})
		if err != nil {
			return err
		}

		if err := h.mailer.Send(ctx, MailMessage{
			To:       user.Email,
			ToName:   user.FullName(),
			Subject:  "Reset Password",
			HTMLBody: body,
		}); err != nil {
			return err
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			ResetToken: token,
			Success:    true,
		})
	}

	return nil
}
