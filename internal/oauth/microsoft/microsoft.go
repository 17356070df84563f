// Package microsoft verifica id_tokens de Microsoft Entra ID (v2.0).
package microsoft

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

const discoveryURL = "https://login.microsoftonline.com/common/v2.0/.well-known/openid-configuration"

// Verifier valida id_tokens de Microsoft contra el JWKS publicado.
// Acepta cualquier tenant (multi-tenant): el issuer lleva el tenant ID.
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

func (v *Verifier) Provider() string { return "microsoft" }

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
	if !strings.HasPrefix(iss, "https://login.microsoftonline.com/") ||
		!strings.HasSuffix(iss, "/v2.0") {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}
	if aud, _ := claims["aud"].(string); aud != v.clientID {
		return nil, errors.New("bad aud")
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}

	// oid es estable cross-app dentro del tenant; sub es per-app. Preferimos oid.
	sub, _ := claims["oid"].(string)
	if sub == "" {
		sub, _ = claims["sub"].(string)
	}
	if sub == "" {
		return nil, errors.New("missing oid/sub")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		email, _ = claims["preferred_username"].(string)
	}
	name, _ := claims["name"].(string)

	return &oauth.Identity{
		Provider:      "microsoft",
		Subject:       sub,
		Email:         strings.ToLower(email),
		EmailVerified: email != "", // Entra no emite email_verified en v2.0
		Name:          name,
	}, nil
}
