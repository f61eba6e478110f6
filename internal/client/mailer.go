package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"marketplace-backend/internal/config"
)

const mailQueue = "mail_queue"

// Mailer is fire-and-forget: failures are logged and swallowed so mail can
// never block or fail the payment path.
type Mailer interface {
	Send(subject, textBody, htmlBody, recipient string)
}

type mailMessage struct {
	Subject   string `json:"subject"`
	TextBody  string `json:"text_body"`
	HTMLBody  string `json:"html_body"`
	Recipient string `json:"recipient"`
}

// AMQPMailer publishes mail jobs to RabbitMQ; a MailWorker drains the queue.
type AMQPMailer struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

func NewAMQPMailer(conn *amqp.Connection, logger *zap.Logger) *AMQPMailer {
	return &AMQPMailer{conn: conn, logger: logger}
}

func (m *AMQPMailer) Send(subject, textBody, htmlBody, recipient string) {
	if err := m.publish(subject, textBody, htmlBody, recipient); err != nil {
		m.logger.Warn("drop mail job", zap.String("recipient", recipient), zap.Error(err))
	}
}

func (m *AMQPMailer) publish(subject, textBody, htmlBody, recipient string) error {
	ch, err := m.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mailQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(&mailMessage{
		Subject:   subject,
		TextBody:  textBody,
		HTMLBody:  htmlBody,
		Recipient: recipient,
	})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		context.Background(),
		"",
		mailQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// MailWorker consumes the queue and performs the actual SMTP send.
type MailWorker struct {
	conn   *amqp.Connection
	cfg    config.SMTP
	logger *zap.Logger
}

func NewMailWorker(conn *amqp.Connection, cfg config.SMTP, logger *zap.Logger) *MailWorker {
	return &MailWorker{conn: conn, cfg: cfg, logger: logger}
}

// Run blocks until the context is cancelled. Delivery failures are logged
// and the message is acked anyway: mail is best-effort.
func (w *MailWorker) Run(ctx context.Context) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	deliveries, err := ch.Consume(mailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("mail channel closed")
			}
			var msg mailMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				w.logger.Warn("discard malformed mail job", zap.Error(err))
				_ = d.Ack(false)
				continue
			}
			if err := w.deliver(&msg); err != nil {
				w.logger.Warn("mail delivery failed",
					zap.String("recipient", msg.Recipient), zap.Error(err))
			}
			_ = d.Ack(false)
		}
	}
}

func (w *MailWorker) deliver(msg *mailMessage) error {
	var b strings.Builder
	boundary := "mail-alt-boundary"
	fmt.Fprintf(&b, "From: %s\r\n", w.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	auth := smtp.PlainAuth("", w.cfg.Username, w.cfg.Password, w.cfg.Host)
	addr := w.cfg.Host + ":" + w.cfg.Port
	return smtp.SendMail(addr, auth, w.cfg.From, []string{msg.Recipient}, []byte(b.String()))
}
