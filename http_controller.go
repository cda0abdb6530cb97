package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RefreshCookieName is the cookie carrying the refresh token
const RefreshCookieName = "refreshToken"

// HTTPController exposes the authentication API under /api/v1/auth
type HTTPController struct {
	Debug       bool
	repo        RepositoryManager
	auther      *Auther
	codec       *TokenCodec
	guard       *SessionGuard
	mailer      Mailer
	renderer    *EmailRenderer
	files       FileStore
	environment string
	baseURL     string
	logger      Logger
}

func NewHTTPController(repo RepositoryManager, auther *Auther, codec *TokenCodec, guard *SessionGuard) *HTTPController {
	return &HTTPController{
		repo:        repo,
		auther:      auther,
		codec:       codec,
		guard:       guard,
		environment: "development",
		logger:      defLogger{},
	}
}

func (a *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		a.logger = logger
	}
	return a
}

func (a *HTTPController) WithMailer(mailer Mailer, renderer *EmailRenderer, baseURL string) *HTTPController {
	a.mailer = mailer
	a.renderer = renderer
	a.baseURL = baseURL
	return a
}

func (a *HTTPController) WithFileStore(files FileStore) *HTTPController {
	a.files = files
	return a
}

// WithEnvironment controls the Secure flag on the refresh cookie
func (a *HTTPController) WithEnvironment(env string) *HTTPController {
	if env != "" {
		a.environment = env
	}
	return a
}

func (a *HTTPController) WithDebug(debug bool) *HTTPController {
	a.Debug = debug
	return a
}

// RegisterRoutes mounts the API on the given app
func (a *HTTPController) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1/auth")

	api.Post("/signup", a.SignUp)
	api.Post("/signin", a.SignIn)
	api.Post("/signout", a.SignOut)
	api.Get("/verify/:token", a.VerifyEmail)
	api.Get("/refresh", a.RefreshToken)
	api.Post("/forgot-password", a.ForgotPassword)
	api.Post("/reset-password/:token", a.ResetPassword)

	api.Get("/profile", a.guard.Protected(), a.GetProfile)
	api.Patch("/profile", a.guard.Protected(), a.UpdateProfile)
	api.Patch("/update-role/:id", a.guard.Protected(), a.UpgradeToSeller)
	api.Get("/users", a.guard.Protected(RoleAdmin), a.ListUsers)

	api.Get("/health", a.Health)
}

// SignUpPayload is the registration request body
type SignUpPayload struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	ContactNo       string `json:"contactNo" form:"contactNo"`
}

func (r SignUpPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FirstName, validation.Required, validation.Length(2, 50)),
			validation.Field(&r.LastName, validation.Required, validation.Length(2, 50)),
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(6, 50)),
			validation.Field(
				&r.ConfirmPassword,
				validation.Required,
				validation.Length(6, 50),
				validation.By(ValidateStringEquals(r.Password)),
			),
			validation.Field(&r.ContactNo, validation.Required, validation.Length(10, 10), is.Digit),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) SignUp(c *fiber.Ctx) error {
	payload := new(SignUpPayload)

	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("sign up parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.logger.Info("sign up validation failed: %s", err.Message)
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	avatar := ""
	if file, err := c.FormFile("avatar"); err == nil && a.files != nil {
		stored, err := a.files.Save(c, file)
		if err != nil {
			a.logger.Error("sign up avatar upload: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to store avatar",
			})
		}
		avatar = stored
	}

	handler := NewRegisterUserHandler(a.repo, a.codec).
		WithLogger(a.logger).
		WithMailer(a.mailer, a.renderer, a.baseURL)

	msg := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		ContactNo: payload.ContactNo,
		Avatar:    avatar,
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.logger.Error("sign up error: %v", err)
		return c.Status(signUpStatus(err)).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Please verify your email address",
	})
}

// signUpStatus keeps duplicate accounts and bad input at 400 so the
// response shape matches the rest of the registration failures
func signUpStatus(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category != goerrors.CategoryInternal {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// SignInPayload is the credential check request body
type SignInPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r SignInPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(6, 50)),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) SignIn(c *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("sign in parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	result, err := a.auther.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryInternal {
			a.logger.Error("sign in error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Authentication error",
			})
		}

		a.logger.Info("sign in rejected for %s", payload.Email)
		message := ErrAuthenticationFailed.Message
		if goerrors.Is(err, ErrTooManyLoginAttempts) {
			message = ErrTooManyLoginAttempts.Message
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
		})
	}

	a.setRefreshCookie(c, result.RefreshToken)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accessToken": result.AccessToken,
		"role":        result.Role,
		"firstName":   result.FirstName,
		"lastName":    result.LastName,
		"message":     "User Logged In Successfully",
	})
}

func (a *HTTPController) SignOut(c *fiber.Ctx) error {
	a.clearRefreshCookie(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "User Logged Out Successfully",
	})
}

func (a *HTTPController) VerifyEmail(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Token not found",
		})
	}

	if _, err := a.auther.VerifyEmail(c.UserContext(), token); err != nil {
		a.logger.Error("email verification error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":     "Email Verified",
		"redirectUrl": "/signin",
	})
}

// ForgotPasswordPayload requests a reset email
type ForgotPasswordPayload struct {
	Email string `json:"email" form:"email"`
}

func (r ForgotPasswordPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("forgot password parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	handler := NewInitializePasswordResetHandler(a.repo, a.codec, a.mailer, a.renderer, a.baseURL).
		WithLogger(a.logger)

	msg := InitializePasswordResetMessage{Email: payload.Email}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.logger.Error("forgot password error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Please check your email to reset password",
	})
}

// ResetPasswordPayload carries the replacement password
type ResetPasswordPayload struct {
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

func (r ResetPasswordPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Password, validation.Required, validation.Length(6, 50)),
			validation.Field(
				&r.ConfirmPassword,
				validation.Required,
				validation.Length(6, 50),
				validation.By(ValidateStringEquals(r.Password)),
			),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("reset password parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	handler := NewFinalizePasswordResetHandler(a.repo, a.codec).WithLogger(a.logger)

	msg := FinalizePasswordResetMessage{
		Token:    c.Params("token"),
		Password: payload.Password,
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.logger.Error("reset password error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password Reset Successfully",
	})
}

func (a *HTTPController) RefreshToken(c *fiber.Ctx) error {
	accessToken, err := a.auther.Refresh(c.UserContext(), c.Cookies(RefreshCookieName))
	if err != nil {
		a.logger.Info("refresh token rejected: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accessToken": accessToken,
		"message":     "New Access Token Issued",
	})
}

func (a *HTTPController) GetProfile(c *fiber.Ctx) error {
	user, ok := UserFromFiber(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": ErrAuthHeaderMissing.Message,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user.Profile(),
	})
}

// AddressPayload is the optional shipping address on a profile update
type AddressPayload struct {
	Street     string `json:"street" form:"street"`
	City       string `json:"city" form:"city"`
	PostalCode string `json:"postalCode" form:"postalCode"`
	Province   string `json:"province" form:"province"`
}

func (r AddressPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Street, validation.Required, validation.Length(2, 150)),
			validation.Field(&r.City, validation.Required, validation.Length(2, 50)),
			validation.Field(&r.PostalCode, validation.Required, validation.Length(2, 10)),
			validation.Field(&r.Province, validation.Required, validation.Length(2, 50)),
		)
	}, "Invalid request parameters")
}

// UpdateProfilePayload is the partial profile update body, empty fields
// keep their stored value
type UpdateProfilePayload struct {
	FirstName string          `json:"firstName" form:"firstName"`
	LastName  string          `json:"lastName" form:"lastName"`
	ContactNo string          `json:"contactNo" form:"contactNo"`
	Address   *AddressPayload `json:"address" form:"address"`
}

func (r UpdateProfilePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FirstName, validation.Length(2, 50)),
			validation.Field(&r.LastName, validation.Length(2, 50)),
			validation.Field(&r.ContactNo, validation.Length(10, 10), is.Digit),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) UpdateProfile(c *fiber.Ctx) error {
	user, ok := UserFromFiber(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": ErrAuthHeaderMissing.Message,
		})
	}

	payload := new(UpdateProfilePayload)
	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("update profile parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	if payload.Address != nil {
		if err := payload.Address.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
		}
	}

	record := &User{ID: user.ID}
	record.FirstName = payload.FirstName
	record.LastName = payload.LastName

	if payload.ContactNo != "" {
		contactNo, err := NormalizeContactNumber(payload.ContactNo)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
		}
		record.ContactNo = contactNo
	}

	if payload.Address != nil {
		record.Address = &Address{
			Street:     payload.Address.Street,
			City:       payload.Address.City,
			PostalCode: payload.Address.PostalCode,
			Province:   payload.Address.Province,
		}
	}

	if file, err := c.FormFile("avatar"); err == nil && a.files != nil {
		stored, err := a.files.Save(c, file)
		if err != nil {
			a.logger.Error("update profile avatar upload: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to store avatar",
			})
		}
		record.Avatar = stored
	}

	if _, err := a.repo.Users().Update(c.UserContext(), record); err != nil {
		if IsDuplicateColumn(err, "contact_no") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "This contact number is already in use",
			})
		}

		a.logger.Error("update profile error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update profile",
		})
	}

	updated, err := a.repo.Users().GetByID(c.UserContext(), user.ID.String(), SelectWithoutPassword())
	if err != nil {
		a.logger.Error("update profile reload error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update profile",
		})
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(updated.Profile()))
		fmt.Println("================")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    updated.Profile(),
	})
}

// UpgradeSellerPayload is the seller upgrade request body
type UpgradeSellerPayload struct {
	StoreName   string `json:"storeName" form:"storeName"`
	Description string `json:"description" form:"description"`
	Logo        string `json:"logo" form:"logo"`
}

func (r UpgradeSellerPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.StoreName, validation.Required, validation.Length(2, 75)),
			validation.Field(&r.Description, validation.Required, validation.Length(2, 200)),
		)
	}, "Invalid request parameters")
}

func (a *HTTPController) UpgradeToSeller(c *fiber.Ctx) error {
	actor, ok := UserFromFiber(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": ErrAuthHeaderMissing.Message,
		})
	}

	targetID := c.Params("id")

	// only an admin or the account owner can run the upgrade
	if actor.Role != RoleAdmin && actor.ID.String() != targetID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": ErrRoleNotAllowed.Message,
		})
	}

	payload := new(UpgradeSellerPayload)
	if err := c.BodyParser(payload); err != nil {
		a.logger.Error("seller upgrade parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to parse request body",
		})
	}

	if file, err := c.FormFile("logo"); err == nil && a.files != nil {
		stored, err := a.files.Save(c, file)
		if err != nil {
			a.logger.Error("seller upgrade logo upload: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to store logo",
			})
		}
		payload.Logo = stored
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
	}

	var result *UpgradeSellerResponse
	handler := NewUpgradeSellerHandler(a.repo).WithLogger(a.logger)

	msg := UpgradeSellerMessage{
		UserID:      targetID,
		StoreName:   payload.StoreName,
		Description: payload.Description,
		Logo:        payload.Logo,
		OnResponse: func(resp *UpgradeSellerResponse) {
			result = resp
		},
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.logger.Error("seller upgrade error: %v", err)
		return c.Status(signUpStatus(err)).JSON(errorBody(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "User updated to seller successfully",
		"user": fiber.Map{
			"_id":    result.User.ID,
			"role":   result.User.Role,
			"seller": result.User.Seller,
		},
	})
}

func (a *HTTPController) ListUsers(c *fiber.Ctx) error {
	records, err := a.repo.Users().List(c.UserContext())
	if err != nil {
		a.logger.Error("list users error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to list users",
		})
	}

	entries := make([]*ListEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.ListEntry())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": entries,
	})
}

func (a *HTTPController) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "Auth Service is healthy",
	})
}

func (a *HTTPController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Expires:  time.Now().Add(a.codec.RefreshTTL()),
		MaxAge:   int(a.codec.RefreshTTL().Seconds()),
		HTTPOnly: true,
		Secure:   a.environment == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

func (a *HTTPController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   a.environment == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}
