package password

import (
	"crypto/rand"
	"math/big"
)

const (
	genUpper   = "ABCDEFGHIJKLMNPQRSTUVWXYZ"
	genLower   = "abcdefghijkmnopqrstuvwxyz"
	genDigits  = "23456789"
	genSymbols = "!@#$%&*-_=+?"
)

// Generate produce una contraseña aleatoria con al menos un carácter de cada
// clase. Se usa para cuentas federadas (Google/Microsoft) cuyo login real lo
// maneja el provider: el hash almacenado solo satisface el invariante de
// password no nulo, nunca se usa para iniciar sesión.
func Generate(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	alphabet := genUpper + genLower + genDigits + genSymbols

	buf := make([]byte, length)

	// Garantizar una de cada clase en posiciones iniciales
	classes := []string{genUpper, genLower, genDigits, genSymbols}
	for i, cls := range classes {
		ch, err := randomFrom(cls)
		if err != nil {
			return "", err
		}
		buf[i] = ch
	}
	for i := len(classes); i < length; i++ {
		ch, err := randomFrom(alphabet)
		if err != nil {
			return "", err
		}
		buf[i] = ch
	}

	// Fisher-Yates con crypto/rand para no dejar las clases fijas al inicio
	for i := len(buf) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(jBig.Int64())
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomFrom(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
