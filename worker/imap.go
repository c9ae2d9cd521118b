package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"nexusdesk/config"
	"nexusdesk/models"
)

// IncomingMail is an unseen message together with its mailbox UID.
type IncomingMail struct {
	UID     uint32
	Message models.Message
}

// IMAPFetcher reads unseen mail from one mailbox. Fetching never changes
// flags; callers flag mail seen once it has been stored.
type IMAPFetcher struct {
	cfg    config.IMAPConfig
	logger *logrus.Entry
}

func NewIMAPFetcher(cfg config.IMAPConfig, logger *logrus.Entry) *IMAPFetcher {
	return &IMAPFetcher{cfg: cfg, logger: logger}
}

func (f *IMAPFetcher) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(f.cfg.Host, strconv.Itoa(f.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(f.cfg.Encryption) {
	case "SSL", "TLS":
		tlsConn := tls.Client(conn, &tls.Config{ServerName: f.cfg.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return tlsConn, nil
	default:
		return conn, nil
	}
}

// session connects, logs in and selects the mailbox. The connection is
// closed as soon as ctx is done, which unblocks any pending command.
func (f *IMAPFetcher) session(ctx context.Context) (*client.Client, func(), error) {
	conn, err := f.dial(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to IMAP server: %w", ctxErr(ctx, err))
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	c, err := client.New(conn)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to IMAP server: %w", ctxErr(ctx, err))
	}
	release := func() {
		stop()
		_ = c.Logout()
	}

	if strings.EqualFold(f.cfg.Encryption, "STARTTLS") {
		if err := c.StartTLS(&tls.Config{ServerName: f.cfg.Host}); err != nil {
			release()
			return nil, nil, fmt.Errorf("failed to start TLS: %w", ctxErr(ctx, err))
		}
	}
	if err := c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to login to IMAP server: %w", ctxErr(ctx, err))
	}

	mailbox := "INBOX"
	if f.cfg.Mailbox != "" {
		mailbox = f.cfg.Mailbox
	}
	if _, err := c.Select(mailbox, false); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to select mailbox: %w", ctxErr(ctx, err))
	}
	return c, release, nil
}

// FetchUnseen returns every unseen message that could be parsed. Messages
// that fail to parse are logged and left unseen.
func (f *IMAPFetcher) FetchUnseen(ctx context.Context) ([]IncomingMail, error) {
	c, release, err := f.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", ctxErr(ctx, err))
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	fetched := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}, fetched)
	}()

	var out []IncomingMail
	for msg := range fetched {
		parsed, err := messageFromIMAP(msg)
		if err != nil {
			f.logger.WithError(err).WithField("uid", msg.Uid).Warn("Failed to parse message")
			continue
		}
		out = append(out, IncomingMail{UID: msg.Uid, Message: parsed})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("error during fetch: %w", ctxErr(ctx, err))
	}
	return out, nil
}

// MarkSeen flags the given UIDs \Seen.
func (f *IMAPFetcher) MarkSeen(ctx context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	c, release, err := f.session(ctx)
	if err != nil {
		return err
	}
	defer release()

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	flags := []interface{}{imap.SeenFlag}
	if err := c.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
		return fmt.Errorf("failed to flag messages seen: %w", ctxErr(ctx, err))
	}
	return nil
}

// ctxErr prefers the context error over the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func messageFromIMAP(msg *imap.Message) (models.Message, error) {
	if msg.Envelope == nil {
		return models.Message{}, fmt.Errorf("message %d has no envelope", msg.SeqNum)
	}

	literal := msg.GetBody(&imap.BodySectionName{})
	if literal == nil {
		return models.Message{}, fmt.Errorf("message body not found")
	}
	mr, err := mail.CreateReader(literal)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to create message reader: %w", err)
	}

	var bodyText string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return models.Message{}, fmt.Errorf("failed to read next part: %w", err)
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "text/plain") {
				continue
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return models.Message{}, fmt.Errorf("failed to read body: %w", err)
			}
			bodyText = string(b)
			break
		}
	}

	text := strings.TrimSpace(bodyText)
	if subject := strings.TrimSpace(msg.Envelope.Subject); subject != "" {
		text = subject + "\n\n" + text
	}

	customer, contact := "Unknown sender", ""
	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		contact = from.Address()
		customer = contact
		if from.PersonalName != "" {
			customer = from.PersonalName
		}
	}

	return models.Message{
		Customer:   customer,
		Contact:    contact,
		Platform:   models.PlatformEmail,
		Text:       text,
		Status:     models.StatusOpen,
		Timestamp:  msg.Envelope.Date.Format("Jan 2, 15:04"),
		ReceivedAt: msg.Envelope.Date,
	}, nil
}
