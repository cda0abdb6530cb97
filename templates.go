package auth

import (
	"bytes"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// Template names for the transactional emails
const (
	TemplateVerifyEmail   = "verify_email"
	TemplateResetPassword = "reset_password"
)

// EmailRenderer renders the embedded transactional email bodies
type EmailRenderer struct {
	engine *django.Engine
}

// NewEmailRenderer loads the embedded email templates
func NewEmailRenderer() (*EmailRenderer, error) {
	sub, err := fs.Sub(viewsFS, "views/emails")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open embedded email templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse email templates")
	}

	return &EmailRenderer{engine: engine}, nil
}

// Render produces the HTML body for the named template
func (r *EmailRenderer) Render(name string, binding map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, binding); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": name})
	}
	return buf.String(), nil
}
