package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ContactNo  string `json:"contactNo"`
	Avatar     string `json:"avatar"`
	UseHashid  bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User              *User
	VerificationToken string
}

type RegisterUserHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	renderer *EmailRenderer
	baseURL  string
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, codec *TokenCodec) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		codec:  codec,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) WithMailer(mailer Mailer, renderer *EmailRenderer, baseURL string) *RegisterUserHandler {
	h.mailer = mailer
	h.renderer = renderer
	h.baseURL = baseURL
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		contactNo, err := NormalizeContactNumber(event.ContactNo)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.ContactNo = contactNo
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Avatar = event.Avatar
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			if IsDuplicateKey(err) {
				return goerrors.New("User Already Exists", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict).
					WithTextCode("USER_EXISTS")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := h.codec.IssueVerification(user.ID.String())
	if err != nil {
		return err
	}

	h.sendVerificationEmail(ctx, user, token)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:              user,
			VerificationToken: token,
		})
	}

	return nil
}

// sendVerificationEmail is best effort, the account exists either way and
// the verification link can be re-requested
func (h *RegisterUserHandler) sendVerificationEmail(ctx context.Context, user *User, token string) {
	if h.mailer == nil || h.renderer == nil {
		return
	}

	body, err := h.renderer.Render(TemplateVerifyEmail, map[string]any{
		"name": user.FullName(),
		"link": h.baseURL + "/api/v1/auth/verify/" + token,
	})
	if err != nil {
		h.logger.Error("failed to render verification email: %v", err)
		return
	}

	if err := h.mailer.Send(ctx, MailMessage{
		To:       user.Email,
		ToName:   user.FullName(),
		Subject:  "Verify Email",
		HTMLBody: body,
	}); err != nil {
		h.logger.Error("failed to send verification email: %v", err)
	}
}
