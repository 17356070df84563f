// Package token implementa el par access/refresh con registro server-side.
//
// El access token es stateless (solo firma+expiry, sin lookup al registro);
// el refresh token es válido únicamente si además su entrada en el registro
// sigue viva. Ese doble chequeo es lo que habilita la revocación server-side
// de un token firmado que por sí solo todavía sería válido.
package token

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind distingue los dos tipos de token emitidos.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims son los claims firmados en ambos tokens.
// TokenID solo viaja en el refresh token: es la key al registro.
type Claims struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	TokenID   string `json:"jti,omitempty"`
	TokenUse  string `json:"token_use"`

	jwtv5.RegisteredClaims
}
