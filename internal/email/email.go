// Package email envía los correos transaccionales de la plataforma.
package email

// Sender envía un email con cuerpo HTML y alternativa en texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// NoopSender descarta todo. Útil en dev y tests.
type NoopSender struct{}

func (NoopSender) Send(_, _, _, _ string) error { return nil }

// SMTPConfig son los parámetros de conexión SMTP.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	TLSMode   string `yaml:"tls_mode"` // "auto" | "starttls" | "ssl" | "none"
}
