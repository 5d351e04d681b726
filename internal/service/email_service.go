package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"yatube/config"
	"yatube/internal/model"
	"yatube/internal/util"
)

// EmailSender 发送账号相关邮件
type EmailSender interface {
	SendPasswordResetEmail(ctx context.Context, user *model.User, token string) error
}

// EmailService 未配置 SMTP 账号时只把邮件内容写入日志
type EmailService struct {
	smtpHost string
	smtpPort int
	username string
	password string
	baseURL  string
	send     func(m *mail.Message) error
}

func NewEmailService() *EmailService {
	s := &EmailService{
		smtpHost: config.AppConfig.SMTPHost,
		smtpPort: config.AppConfig.SMTPPort,
		username: config.AppConfig.SMTPUsername,
		password: config.AppConfig.SMTPPassword,
		baseURL:  config.AppConfig.BackendURL,
	}
	s.send = s.dialAndSend
	return s
}

// ResetLink 生成密码重置页面的绝对地址
func (s *EmailService) ResetLink(token string) string {
	return fmt.Sprintf("%s/auth/reset/%s/", s.baseURL, token)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, user *model.User, token string) error {
	resetLink := s.ResetLink(token)

	subject := "Yatube 密码重置"
	body := fmt.Sprintf(`<p>%s，您好：</p>
<p>我们收到了您在 Yatube 的密码重置请求。</p>
<p><a href="%s">设置新密码</a></p>
<p>此链接将在24小时后过期。如果这不是您本人操作，请忽略此邮件。</p>`, user.Username, resetLink)

	m := mail.NewMessage()
	m.SetHeader("From", s.from())
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if s.username == "" {
		util.Logger.Info("未配置SMTP，邮件仅写入日志",
			zap.String("to", user.Email),
			zap.String("subject", subject),
			zap.String("link", resetLink))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send(m)
}

func (s *EmailService) from() string {
	if s.username != "" {
		return s.username
	}
	return "noreply@yatube.local"
}

func (s *EmailService) dialAndSend(m *mail.Message) error {
	util.Logger.Info("开始发送邮件",
		zap.String("SMTPHost", s.smtpHost),
		zap.Int("SMTPPort", s.smtpPort),
		zap.Strings("to", m.GetHeader("To")))

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = s.smtpPort == 465
	d.TLSConfig = &tls.Config{ServerName: s.smtpHost}

	if err := d.DialAndSend(m); err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.Strings("to", m.GetHeader("To")))
	return nil
}
