package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cartify-api/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendHTML(to []string, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

func account() *domain.Account {
	return &domain.Account{AccountID: "u1", Email: "a@x.com", FirstName: "Ann", LastName: "Lee"}
}

func newNotifier(ml Mailer, sms SMSSender) Notifier {
	return NewService(ServiceDeps{Mailer: ml, SMS: sms, Timeout: time.Second, Logger: zerolog.Nop()})
}

func TestSendPasswordResetOTP_RendersCode(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", []string{"a@x.com"}, "Cartify - Password Reset OTP", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "042917") && strings.Contains(body, "10 minutes") && strings.Contains(body, "a@x.com")
	})).Return(nil)

	n := newNotifier(ml, nil)
	n.SendPasswordResetOTP(context.Background(), account(), "042917")
	n.Wait()

	ml.AssertExpectations(t)
}

func TestSendWelcome_GreetsByName(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", []string{"a@x.com"}, "Welcome to Cartify! 🛒", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Hi Ann Lee!")
	})).Return(nil)

	n := newNotifier(ml, nil)
	n.SendWelcome(context.Background(), account())
	n.Wait()

	ml.AssertExpectations(t)
}

func TestSendWelcome_EscapesHTML(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", mock.Anything, mock.Anything, mock.MatchedBy(func(body string) bool {
		return !strings.Contains(body, "<script>") && strings.Contains(body, "&lt;script&gt;")
	})).Return(nil)

	a := account()
	a.FirstName = "<script>"
	n := newNotifier(ml, nil)
	n.SendWelcome(context.Background(), a)
	n.Wait()

	ml.AssertExpectations(t)
}

func TestSendPasswordResetSuccess_EmailAndSMS(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", []string{"a@x.com"}, "Cartify - Password Reset Successful", mock.Anything).Return(nil)
	sms := &mockSMS{}
	sms.On("SendSMS", mock.Anything, "+15550001", mock.Anything).Return(nil)

	a := account()
	phone := "+15550001"
	a.Phone = &phone

	n := newNotifier(ml, sms)
	n.SendPasswordResetSuccess(context.Background(), a)
	n.Wait()

	ml.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestSendPasswordResetSuccess_NoPhoneNoSMS(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sms := &mockSMS{}

	n := newNotifier(ml, sms)
	n.SendPasswordResetSuccess(context.Background(), account())
	n.Wait()

	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_FailureIsSwallowed(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	n := newNotifier(ml, nil)
	assert.NotPanics(t, func() {
		n.SendWelcome(context.Background(), account())
		n.Wait()
	})
	ml.AssertNumberOfCalls(t, "SendHTML", 1)
}

func TestDispatch_SurvivesCancelledRequestContext(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendHTML", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sms := &mockSMS{}
	sms.On("SendSMS", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := account()
	phone := "+15550001"
	a.Phone = &phone
	n := newNotifier(ml, sms)
	n.SendPasswordResetSuccess(ctx, a)
	n.Wait()

	sms.AssertExpectations(t)
}

func TestDispatch_Timeout(t *testing.T) {
	ml := &mockMailer{}
	release := make(chan struct{})
	ml.On("SendHTML", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	n := NewService(ServiceDeps{Mailer: ml, Timeout: 20 * time.Millisecond, Logger: zerolog.Nop()})
	start := time.Now()
	n.SendWelcome(context.Background(), account())
	n.Wait()
	close(release)

	assert.Less(t, time.Since(start), time.Second)
}
