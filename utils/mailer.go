package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"agendly/config"
)

// SendInviteEmail notifies a user that they were added to an agenda.
// Mailing is best-effort: when SMTP is not configured the notification
// is skipped, and a delivery failure never fails the invite itself.
func SendInviteEmail(toEmail, agendaName, role string) {
	smtp := config.AppConfig.SMTP
	if smtp.Host == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtp.From)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("You have been invited to %s", agendaName))
	m.SetBody("text/plain", fmt.Sprintf(
		"You have been added to the agenda %q as %s. Log in to see its calendar.",
		agendaName, role))

	d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	if err := d.DialAndSend(m); err != nil {
		logrus.WithError(err).WithField("to", toEmail).Warn("Failed to send invite email")
	}
}
