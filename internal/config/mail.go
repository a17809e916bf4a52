package config

import "github.com/spf13/viper"

// MailConfig holds the SMTP settings for outgoing email. An empty Host means
// emails are only logged.
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	ReplyTo  string
}

func LoadMailConfig() MailConfig {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SMTP_PORT", "465")
	v.SetDefault("SMTP_FROM", "Favo <no-reply@favo.local>")

	return MailConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetString("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		ReplyTo:  v.GetString("MAIL_REPLY_TO"),
	}
}

// Configured reports whether enough settings are present to dial SMTP.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.Port != "" && m.From != ""
}
