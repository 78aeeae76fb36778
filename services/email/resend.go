package emailsvc

import (
	"fmt"
	"net/mail"

	"github.com/resend/resend-go/v2"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

type resendService struct {
	client     *resend.Client
	from       string
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*resendService)(nil)

// NewResendService returns an EmailService backed by the Resend API.
func NewResendService(conf *core.Config, logger core.Logger) *resendService {
	from := conf.DefaultFromEmail()
	return &resendService{
		client:     resend.NewClient(conf.ResendApiKey),
		from:       from.String(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc resendService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				svc.send(*msg)
			}
		}()
	}
}

func (svc resendService) send(msg core.EmailMessage) {
	params := &resend.SendEmailRequest{
		From:    svc.from,
		To:      toPlainAddresses(msg.To),
		Cc:      toPlainAddresses(msg.Cc),
		Bcc:     toPlainAddresses(msg.Bcc),
		Subject: svc.subjPrefix + msg.Subject,
		Text:    msg.BodyStr,
	}
	for _, at := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     at.Content.Bytes(),
			Filename:    at.Filename,
			ContentType: at.ContentType,
		})
	}

	if _, err := svc.client.Emails.Send(params); err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
	}
}

func toPlainAddresses(addrs []mail.Address) []string {
	emails := make([]string, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, a.Address)
	}
	return emails
}
