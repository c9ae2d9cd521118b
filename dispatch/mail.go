package dispatch

import (
	"context"
	"fmt"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"nexusdesk/models"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailDispatcher answers Email messages over SMTP.
type MailDispatcher struct {
	sender mailSender
	from   string
	logger *logrus.Entry
}

func NewMailDispatcher(host string, port int, username, password, from string, logger *logrus.Entry) *MailDispatcher {
	return &MailDispatcher{
		sender: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

func (d *MailDispatcher) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	if err := checkmail.ValidateFormat(msg.Contact); err != nil {
		return fmt.Errorf("contact %q: %v: %w", msg.Contact, err, ErrNoContact)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetAddressHeader("To", msg.Contact, msg.Customer)
	m.SetHeader("Subject", "Re: your message to our support team")
	m.SetBody("text/plain", reply)

	if err := d.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reply email: %w", err)
	}
	d.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"to":         msg.Contact,
	}).Info("Reply email sent")
	return nil
}
