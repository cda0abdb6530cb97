package auth

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// MailMessage is a rendered email ready for delivery
type MailMessage struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Mailer delivers rendered email messages
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// FileStore persists uploaded files and returns the public path
// we keep on the user record
type FileStore interface {
	Save(c *fiber.Ctx, file *multipart.FileHeader) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
