package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"nexusdesk/models"
)

type recordingDispatcher struct {
	calls []uint
	err   error
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	r.calls = append(r.calls, msg.ID)
	return r.err
}

type fakeMailSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMailSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestRouter_PicksByPlatform(t *testing.T) {
	fallback := &recordingDispatcher{}
	email := &recordingDispatcher{}
	r := NewRouter(fallback)
	r.Route(models.PlatformEmail, email)

	require.NoError(t, r.Dispatch(context.Background(), models.Message{ID: 1, Platform: models.PlatformEmail}, "hi"))
	require.NoError(t, r.Dispatch(context.Background(), models.Message{ID: 2, Platform: models.PlatformWhatsApp}, "hi"))

	assert.Equal(t, []uint{1}, email.calls)
	assert.Equal(t, []uint{2}, fallback.calls)
}

func TestRouter_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRouter(&recordingDispatcher{err: boom})

	err := r.Dispatch(context.Background(), models.Message{ID: 1}, "hi")
	assert.ErrorIs(t, err, boom)
}

func TestDelayDispatcher(t *testing.T) {
	d := DelayDispatcher{Delay: 10 * time.Millisecond}
	start := time.Now()
	require.NoError(t, d.Dispatch(context.Background(), models.Message{}, "hi"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DelayDispatcher{Delay: time.Minute}.Dispatch(ctx, models.Message{}, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailDispatcher_SendsToContact(t *testing.T) {
	sender := &fakeMailSender{}
	d := &MailDispatcher{sender: sender, from: "support@example.com", logger: quietLogger()}

	err := d.Dispatch(context.Background(), models.Message{
		ID:       5,
		Customer: "Michael Brown",
		Contact:  "michael.brown@example.com",
		Platform: models.PlatformEmail,
	}, "Your refund is on its way.")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{`"Michael Brown" <michael.brown@example.com>`}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"support@example.com"}, sender.sent[0].GetHeader("From"))
}

func TestMailDispatcher_RejectsBadContact(t *testing.T) {
	sender := &fakeMailSender{}
	d := &MailDispatcher{sender: sender, from: "support@example.com", logger: quietLogger()}

	err := d.Dispatch(context.Background(), models.Message{ID: 2, Contact: "+15550100002"}, "hi")

	assert.ErrorIs(t, err, ErrNoContact)
	assert.Empty(t, sender.sent)
}

func TestMailDispatcher_SMTPFailure(t *testing.T) {
	sender := &fakeMailSender{err: errors.New("connection refused")}
	d := &MailDispatcher{sender: sender, from: "support@example.com", logger: quietLogger()}

	err := d.Dispatch(context.Background(), models.Message{ID: 1, Contact: "alice@example.com"}, "hi")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "inbox.replies.whatsapp", SubjectFor("inbox.replies", models.PlatformWhatsApp))
	assert.Equal(t, "inbox.replies.messenger", SubjectFor("inbox.replies", models.PlatformMessenger))
}
