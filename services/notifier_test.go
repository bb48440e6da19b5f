package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

type fakeMailSender struct {
	sent []*mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeMailSender) Send(m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	return f.resp, f.err
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) InvitationCreated(context.Context, models.InvitationView) error {
	c.calls++
	return c.err
}

func testInvitationView() models.InvitationView {
	return models.InvitationView{
		Invitation: models.Invitation{ID: primitive.NewObjectID()},
		Inviter:    models.UserSummary{Email: "owner@example.com", DisplayName: "Owner"},
		Invitee:    models.UserSummary{Email: "invitee@example.com", DisplayName: "Invitee"},
		Board:      &models.BoardSummary{Title: "Roadmap <2025>"},
	}
}

func TestMailNotifier(t *testing.T) {
	sender := &fakeMailSender{resp: &rest.Response{StatusCode: 202}}
	n := &MailNotifier{Client: sender, FromEmail: "noreply@example.com", BaseUrl: "https://board.example.com"}

	require.NoError(t, n.InvitationCreated(context.Background(), testInvitationView()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "noreply@example.com", msg.From.Address)
	assert.Equal(t, "Owner invited you to Roadmap <2025>", msg.Subject)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "invitee@example.com", msg.Personalizations[0].To[0].Address)
	require.Len(t, msg.Content, 2)
	assert.Contains(t, msg.Content[1].Value, "Roadmap &lt;2025&gt;")
	assert.Contains(t, msg.Content[1].Value, "https://board.example.com/invitations")
}

func TestMailNotifierErrors(t *testing.T) {
	sender := &fakeMailSender{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}}
	n := &MailNotifier{Client: sender, FromEmail: "noreply@example.com"}
	assert.ErrorContains(t, n.InvitationCreated(context.Background(), testInvitationView()), "401")

	sender.err = errors.New("dial tcp: timeout")
	assert.Error(t, n.InvitationCreated(context.Background(), testInvitationView()))

	noEmail := testInvitationView()
	noEmail.Invitee.Email = ""
	sent := len(sender.sent)
	assert.Error(t, n.InvitationCreated(context.Background(), noEmail))
	assert.Len(t, sender.sent, sent)
}

func TestMultiNotifier(t *testing.T) {
	ok := &countingNotifier{}
	failing := &countingNotifier{err: errors.New("hub closed")}
	m := MultiNotifier{failing, ok}

	err := m.InvitationCreated(context.Background(), testInvitationView())
	assert.ErrorContains(t, err, "hub closed")
	assert.Equal(t, 1, ok.calls, "a failing notifier does not stop the others")
	assert.Equal(t, 1, failing.calls)

	assert.NoError(t, NopNotifier{}.InvitationCreated(context.Background(), testInvitationView()))
}
