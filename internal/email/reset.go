package email

import (
	"fmt"
	"net/url"
	"time"
)

// BuildResetEmail arma el asunto y los cuerpos del correo de reset.
// El token viaja en el query string del link, nunca en texto suelto.
func BuildResetEmail(baseURL, token string, ttl time.Duration) (subject, htmlBody, textBody string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, url.QueryEscape(token))
	mins := int(ttl.Minutes())

	subject = "Restablecer tu contraseña"

	htmlBody = fmt.Sprintf(`<p>Recibimos una solicitud para restablecer tu contraseña.</p>
<p><a href="%s">Restablecer contraseña</a></p>
<p>El enlace expira en %d minutos. Si no fuiste vos, ignorá este correo:
tu contraseña actual sigue siendo válida.</p>`, link, mins)

	textBody = fmt.Sprintf(`Recibimos una solicitud para restablecer tu contraseña.

Abrí este enlace para continuar: %s

El enlace expira en %d minutos. Si no fuiste vos, ignorá este correo.`, link, mins)

	return subject, htmlBody, textBody
}
