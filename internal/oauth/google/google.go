// Package google verifica id_tokens de Google Identity Services.
package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/vantadev/readiq/internal/oauth"
)

const discoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

// Verifier valida id_tokens de Google contra el JWKS publicado.
type Verifier struct {
	clientID string
	keys     *oauth.KeySource
}

func New(clientID string) *Verifier {
	return &Verifier{
		clientID: clientID,
		keys:     oauth.NewKeySource(discoveryURL),
	}
}

func (v *Verifier) Provider() string { return "google" }

// Verify valida firma, iss, aud y exp del id_token.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*oauth.Identity, error) {
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}

	key, err := v.keys.RSAKey(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwtv5.Parse(idToken,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid id_token")
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}

	iss, _ := claims["iss"].(string)
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}
	if !audMatches(claims["aud"], v.clientID) {
		return nil, errors.New("bad aud")
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub")
	}
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	name, _ := claims["name"].(string)

	return &oauth.Identity{
		Provider:      "google",
		Subject:       sub,
		Email:         strings.ToLower(email),
		EmailVerified: verified,
		Name:          name,
	}, nil
}

func audMatches(aud any, clientID string) bool {
	switch a := aud.(type) {
	case string:
		return a == clientID
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == clientID {
				return true
			}
		}
	}
	return false
}
