package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
	"strings"

	"newsapp/internal/config"

	"github.com/rs/zerolog"
)

// MailService 通过 SMTP 异步发送邮件，未配置 SMTP 时只记录日志
type MailService struct {
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	Enabled     bool
	templateDir string
	log         zerolog.Logger
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.Config, log zerolog.Logger) *MailService {
	smtpCfg := cfg.SMTP
	enabled := smtpCfg.Host != "" && smtpCfg.Port != "" && smtpCfg.User != "" && smtpCfg.Pass != "" && smtpCfg.From != ""
	log = log.With().Str("component", "mail").Logger()
	if !enabled {
		log.Warn().Msg("MailService disabled: missing SMTP environment variables")
	}

	return &MailService{
		Host:        smtpCfg.Host,
		Port:        smtpCfg.Port,
		Username:    smtpCfg.User,
		Password:    smtpCfg.Pass,
		From:        smtpCfg.From,
		Enabled:     enabled,
		templateDir: filepath.Join(cfg.TemplatesDir, "email"),
		log:         log,
		send:        smtp.SendMail,
	}
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		s.log.Debug().Strs("to", to).Str("subject", subject).Msg("mail skipped")
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		err := s.send(addr, auth, s.From, to, s.message(to, subject, body))
		if err != nil {
			s.log.Error().Err(err).Strs("to", to).Msg("Failed to send email")
		} else {
			s.log.Info().Strs("to", to).Str("subject", subject).Msg("Email sent")
		}
	}()
}

func (s *MailService) message(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: newsapp <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))
}

func (s *MailService) parseTemplate(templateName string, data any) (string, error) {
	path := filepath.Join(s.templateDir, templateName)
	t, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

func (s *MailService) SendPasswordResetEmail(email, username, link string) {
	body, err := s.parseTemplate("reset.html", map[string]string{
		"Username": username,
		"Link":     link,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Error rendering reset email")
		return
	}
	s.sendAsync([]string{email}, "Reset your newsapp password", body)
}

func (s *MailService) SendReplyNotification(email, replier, title, reply, original, link string) {
	data := map[string]string{
		"Replier":  replier,
		"Title":    title,
		"Reply":    reply,
		"Original": original,
		"Link":     link,
	}
	body, err := s.parseTemplate("reply.html", data)
	if err != nil {
		s.log.Error().Err(err).Msg("Error rendering reply email")
		return
	}
	s.sendAsync([]string{email}, replier+" replied to your comment on \""+title+"\"", body)
}
