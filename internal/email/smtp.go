// Package email delivers placement alert emails over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender sends alert emails via a direct SMTP connection using go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendRenegeAlert notifies that a placement was lost to a renege.
func (s *SMTPSender) SendRenegeAlert(ctx context.Context, toEmail, candidateName, reason string, revenueCleared float64) error {
	content, err := renderEmailTemplate("alert.html", alertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Placement lost",
			Heading: "Candidate reneged",
		},
		CandidateName: candidateName,
		Detail:        fmt.Sprintf("Reason: %s. Revenue of %.2f lakh has been removed from the books.", reason, revenueCleared),
		ActionHint:    "Contact the client about a replacement search.",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectRenegeAlertFmt, candidateName), content)
}

// SendAtRiskAlert notifies that a placement is approaching the end of its
// guarantee period.
func (s *SMTPSender) SendAtRiskAlert(ctx context.Context, toEmail, candidateName string, guaranteeEnds time.Time) error {
	content, err := renderEmailTemplate("alert.html", alertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Placement at risk",
			Heading: "Guarantee period ending soon",
		},
		CandidateName: candidateName,
		Detail:        fmt.Sprintf("The guarantee period ends on %s.", guaranteeEnds.Format("2 January 2006")),
		ActionHint:    "Check in with the candidate and record a follow-up.",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectAtRiskAlertFmt, candidateName), content)
}

// SendGuaranteeCompletedAlert notifies that a placement survived its
// guarantee period and the fee is secured.
func (s *SMTPSender) SendGuaranteeCompletedAlert(ctx context.Context, toEmail, candidateName string) error {
	content, err := renderEmailTemplate("alert.html", alertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Guarantee completed",
			Heading: "Placement revenue secured",
		},
		CandidateName: candidateName,
		Detail:        "The guarantee period completed without incident.",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectGuaranteeCompletedFmt, candidateName), content)
}

// SendFollowUpReminder nudges the recruiter ahead of a guarantee deadline.
func (s *SMTPSender) SendFollowUpReminder(ctx context.Context, toEmail, candidateName string, guaranteeEnds time.Time) error {
	content, err := renderEmailTemplate("alert.html", alertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Follow-up due",
			Heading: "Placement follow-up due",
		},
		CandidateName: candidateName,
		Detail:        fmt.Sprintf("A follow-up is due before the guarantee period ends on %s.", guaranteeEnds.Format("2 January 2006")),
		ActionHint:    "Record the follow-up on the candidate's safety record.",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectFollowUpReminderFmt, candidateName), content)
}
