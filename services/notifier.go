package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/linesmerrill/taskboard-api/models"
	templates "github.com/linesmerrill/taskboard-api/templates/html"
)

// Notifier is told about domain events after they are persisted. Delivery is
// best effort, a failed notification never fails the operation.
type Notifier interface {
	InvitationCreated(ctx context.Context, invitation models.InvitationView) error
}

// AccountNotifier delivers the verification link of a new account
type AccountNotifier interface {
	AccountCreated(ctx context.Context, user models.UserSummary, verifyLink string) error
}

// NopNotifier drops every event
type NopNotifier struct{}

// InvitationCreated does nothing
func (NopNotifier) InvitationCreated(context.Context, models.InvitationView) error { return nil }

// MultiNotifier fans an event out to every notifier and joins their errors
type MultiNotifier []Notifier

// InvitationCreated notifies every member
func (m MultiNotifier) InvitationCreated(ctx context.Context, invitation models.InvitationView) error {
	var errs []error
	for _, n := range m {
		if err := n.InvitationCreated(ctx, invitation); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MailSender is the part of the sendgrid client the mail notifier uses
type MailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// MailNotifier emails the invitee through sendgrid
type MailNotifier struct {
	Client    MailSender
	FromEmail string
	BaseUrl   string
}

// NewMailNotifier builds a sendgrid backed notifier
func NewMailNotifier(apiKey, fromEmail, baseUrl string) *MailNotifier {
	return &MailNotifier{
		Client:    sendgrid.NewSendClient(apiKey),
		FromEmail: fromEmail,
		BaseUrl:   baseUrl,
	}
}

// InvitationCreated sends the invitation email
func (m *MailNotifier) InvitationCreated(ctx context.Context, invitation models.InvitationView) error {
	if invitation.Invitee.Email == "" {
		return fmt.Errorf("invitation %s has no invitee email", invitation.ID.Hex())
	}
	boardTitle := "a board"
	if invitation.Board != nil {
		boardTitle = invitation.Board.Title
	}
	inviter := invitation.Inviter.DisplayName
	if inviter == "" {
		inviter = invitation.Inviter.Email
	}

	link := m.BaseUrl + "/invitations"
	subject := fmt.Sprintf("%s invited you to %s", inviter, boardTitle)
	plain := fmt.Sprintf("%s invited you to join the board %q. Open your invitations to accept or decline: %s",
		inviter, boardTitle, link)

	from := mail.NewEmail("Task Board", m.FromEmail)
	to := mail.NewEmail(invitation.Invitee.DisplayName, invitation.Invitee.Email)
	msg := mail.NewSingleEmail(from, subject, to, plain, templates.RenderInvitationEmail(inviter, boardTitle, link))

	return m.send(msg)
}

// AccountCreated sends the account verification email
func (m *MailNotifier) AccountCreated(ctx context.Context, user models.UserSummary, verifyLink string) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email", user.ID.Hex())
	}
	subject := "Please verify your Task Board account"
	plain := "Click the link below to verify your account: " + verifyLink

	from := mail.NewEmail("Task Board", m.FromEmail)
	to := mail.NewEmail(user.DisplayName, user.Email)
	msg := mail.NewSingleEmail(from, subject, to, plain, templates.RenderVerifyAccountEmail(verifyLink))
	return m.send(msg)
}

func (m *MailNotifier) send(msg *mail.SGMailV3) error {
	resp, err := m.Client.Send(msg)
	if err != nil {
		return err
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
