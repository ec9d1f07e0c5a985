package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/cartify-api/internal/domain"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const otpExpiryMinutes = 10

// Mailer is the outbound email transport.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// SMSSender is the outbound SMS transport.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Notifier sends account emails. Every method returns immediately; delivery
// runs in the background and failures are only logged.
type Notifier interface {
	SendWelcome(ctx context.Context, a *domain.Account)
	SendPasswordResetOTP(ctx context.Context, a *domain.Account, code string)
	SendPasswordResetSuccess(ctx context.Context, a *domain.Account)
	// Wait blocks until every dispatched notification has finished.
	Wait()
}

type ServiceDeps struct {
	Mailer  Mailer
	SMS     SMSSender // nil disables SMS notices
	AppName string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type service struct {
	mailer  Mailer
	sms     SMSSender
	appName string
	timeout time.Duration
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

func NewService(deps ServiceDeps) Notifier {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	appName := deps.AppName
	if appName == "" {
		appName = "Cartify"
	}
	return &service{
		mailer:  deps.Mailer,
		sms:     deps.SMS,
		appName: appName,
		timeout: timeout,
		logger:  deps.Logger.With().Str("component", "notifier").Logger(),
	}
}

type emailData struct {
	AppName       string
	Email         string
	Name          string
	Code          string
	ExpiryMinutes int
	Year          int
}

func (s *service) data(a *domain.Account) emailData {
	return emailData{
		AppName: s.appName,
		Email:   a.Email,
		Name:    a.FullName(),
		Year:    time.Now().Year(),
	}
}

func (s *service) SendWelcome(ctx context.Context, a *domain.Account) {
	s.email(ctx, a, "welcome", fmt.Sprintf("Welcome to %s! 🛒", s.appName), s.data(a))
}

func (s *service) SendPasswordResetOTP(ctx context.Context, a *domain.Account, code string) {
	d := s.data(a)
	d.Code = code
	d.ExpiryMinutes = otpExpiryMinutes
	s.email(ctx, a, "otp", fmt.Sprintf("%s - Password Reset OTP", s.appName), d)
}

func (s *service) SendPasswordResetSuccess(ctx context.Context, a *domain.Account) {
	s.email(ctx, a, "reset_success", fmt.Sprintf("%s - Password Reset Successful", s.appName), s.data(a))
	if s.sms != nil && a.Phone != nil && *a.Phone != "" {
		phone := *a.Phone
		msg := fmt.Sprintf("Your %s password was just reset. If this wasn't you, contact support immediately.", s.appName)
		s.dispatch(ctx, a.AccountID, "reset_success_sms", func(ctx context.Context) error {
			return s.sms.SendSMS(ctx, phone, msg)
		})
	}
}

func (s *service) Wait() { s.wg.Wait() }

func (s *service) email(ctx context.Context, a *domain.Account, tmpl, subject string, d emailData) {
	body, err := render(tmpl, d)
	if err != nil {
		s.logger.Error().Err(err).Str("template", tmpl).Str("account_id", a.AccountID).Msg("render email")
		return
	}
	to := []string{a.Email}
	s.dispatch(ctx, a.AccountID, tmpl, func(context.Context) error {
		return s.mailer.SendHTML(to, subject, body)
	})
}

// dispatch runs send on its own goroutine, detached from the request's
// cancellation but bounded by the notifier timeout.
func (s *service) dispatch(ctx context.Context, accountID, kind string, send func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- send(ctx) }()

		log := s.logger.With().Str("kind", kind).Str("account_id", accountID).Logger()
		select {
		case err := <-done:
			if err != nil {
				log.Warn().Err(err).Msg("notification failed")
				return
			}
			log.Debug().Msg("notification sent")
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Msg("notification timed out")
		}
	}()
}

func render(name string, d emailData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, d); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
