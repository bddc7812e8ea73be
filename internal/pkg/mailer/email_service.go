// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"oral-coach-be/internal/scoring"
)

type IEmailService interface {
	SendSessionReport(toEmail string, report *scoring.SessionScore) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendSessionReport(toEmail string, report *scoring.SessionScore) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Oral Practice Session Report")

	var criteria strings.Builder
	for name, result := range report.Criteria {
		fmt.Fprintf(&criteria, "<li><b>%s</b>: %.0f (level %s) — %s</li>", name, result.Score, result.Level, result.Feedback)
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Session Report</h2>
			<p>Overall score: <b>%d</b> (level <b>%s</b>)</p>
			<ul>%s</ul>
			<p><b>Strengths:</b> %s</p>
			<p><b>Areas to work on:</b> %s</p>
			<p><b>Recommendations:</b> %s</p>
		</div>
	`,
		report.OverallScore,
		report.OverallLevel,
		criteria.String(),
		strings.Join(report.Strengths, ", "),
		strings.Join(report.Weaknesses, ", "),
		strings.Join(report.Recommendations, "; "),
	)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send session report email: %w", err)
	}
	return nil
}
