package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantadev/readiq/internal/cache"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/rate"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	memstore "github.com/vantadev/readiq/internal/store/memory"
	"github.com/vantadev/readiq/internal/token"
)

// captureSender guarda el último correo enviado para inspeccionarlo.
type captureSender struct {
	to, subject, html, text string
	sent                    int
}

func (s *captureSender) Send(to, subject, htmlBody, textBody string) error {
	s.to, s.subject, s.html, s.text = to, subject, htmlBody, textBody
	s.sent++
	return nil
}

// fastParams mantiene argon2 barato para que la suite no se arrastre.
var fastParams = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type fixture struct {
	svc    Services
	tokens *token.Service
	sender *captureSender
	users  core.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := cache.NewMemory("")
	tokens, err := token.New(token.Config{
		Issuer:        "readiq-test",
		AccessSecret:  "access-secret-para-tests",
		RefreshSecret: "refresh-secret-para-tests",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, c)
	require.NoError(t, err)

	users := memstore.New()
	sender := &captureSender{}

	lockout := rate.NewLockoutPolicy(c)
	lockout.MaxFailures = 3

	svc := NewServices(Deps{
		Users:        users,
		Tokens:       tokens,
		Cache:        c,
		Sender:       sender,
		Lockout:      lockout,
		Claimer:      core.NoopClaimer{},
		Policy:       password.DefaultPolicy,
		Params:       fastParams,
		ResetBaseURL: "https://app.example.com",
		ResetTTL:     30 * time.Minute,
	})

	return &fixture{svc: svc, tokens: tokens, sender: sender, users: users}
}

func register(t *testing.T, f *fixture, email, pass string) (*dto.RegisterResponse, *token.Pair) {
	t.Helper()
	resp, pair, err := f.svc.Register.Register(context.Background(), dto.RegisterRequest{
		Email:    email,
		Password: pass,
		Name:     "Tester",
	}, token.Metadata{UserAgent: "test-agent"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	return resp, pair
}

func TestFlow_RegisterLoginRefreshLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	resp, pair := register(t, f, "Flujo@Example.com", "Segura123")
	assert.Equal(t, "flujo@example.com", resp.Email)
	assert.Equal(t, string(core.RoleUser), resp.Role)
	require.NotEmpty(t, resp.UserID)

	// doble registro con el mismo email
	_, _, err := f.svc.Register.Register(ctx, dto.RegisterRequest{
		Email:    "flujo@example.com",
		Password: "Segura123",
	}, token.Metadata{})
	require.ErrorIs(t, err, ErrEmailTaken)

	// login con password erróneo
	_, _, err = f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "flujo@example.com",
		Password: "Incorrecta1",
	}, token.Metadata{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// login correcto
	loginResp, loginPair, err := f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "FLUJO@example.com",
		Password: "Segura123",
	}, token.Metadata{UserAgent: "otro-agente"})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, loginResp.UserID)
	require.NotNil(t, loginPair)

	// refresh renueva el access sobre la misma sesión
	refResp, access, err := f.svc.Refresh.Refresh(ctx, loginPair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	assert.Positive(t, refResp.ExpiresIn)
	claims := f.tokens.VerifyAccess(access)
	require.NotNil(t, claims)
	assert.Equal(t, loginPair.SessionID, claims.SessionID)

	// rotate mata el refresh viejo
	rotResp, rotPair, err := f.svc.Refresh.Rotate(ctx, loginPair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, rotPair)
	assert.Equal(t, loginPair.SessionID, rotResp.SessionID)
	_, _, err = f.svc.Refresh.Refresh(ctx, loginPair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	// logout es idempotente
	require.NoError(t, f.svc.Logout.Logout(ctx, rotPair.RefreshToken))
	require.NoError(t, f.svc.Logout.Logout(ctx, rotPair.RefreshToken))
	_, _, err = f.svc.Refresh.Refresh(ctx, rotPair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	// la sesión del registro inicial sigue viva y cae con logout-all
	_, _, err = f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	n, err := f.svc.Logout.LogoutAll(ctx, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, _, err = f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestFlow_RegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{"sin email", dto.RegisterRequest{Password: "Segura123"}, ErrMissingFields},
		{"sin password", dto.RegisterRequest{Email: "a@example.com"}, ErrMissingFields},
		{"email inválido", dto.RegisterRequest{Email: "no-es-email", Password: "Segura123"}, ErrInvalidEmail},
		{"password débil", dto.RegisterRequest{Email: "a@example.com", Password: "corta"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		_, _, err := f.svc.Register.Register(ctx, tc.req, token.Metadata{})
		require.ErrorIs(t, err, tc.want, tc.name)
	}
}

func TestFlow_LockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	register(t, f, "lock@example.com", "Segura123")

	req := dto.LoginRequest{Email: "lock@example.com", Password: "Mala1234"}
	meta := token.Metadata{IPAddress: "9.9.9.9"}

	// tres fallos activan el lock (MaxFailures=3 en el fixture);
	// el tercero ya reporta la cuenta bloqueada
	for i := 0; i < 2; i++ {
		_, _, err := f.svc.Login.Login(ctx, req, meta)
		require.ErrorIs(t, err, ErrInvalidCredentials, "fallo %d", i+1)
	}
	_, _, err := f.svc.Login.Login(ctx, req, meta)
	require.ErrorIs(t, err, ErrAccountLocked)

	// con el lock activo ni siquiera el password correcto entra
	_, _, err = f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "lock@example.com",
		Password: "Segura123",
	}, meta)
	require.ErrorIs(t, err, ErrAccountLocked)

	// una IP distinta es otra identidad de lockout
	_, _, err = f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "lock@example.com",
		Password: "Segura123",
	}, token.Metadata{IPAddress: "1.1.1.1"})
	require.NoError(t, err)
}

func TestFlow_ProfileAndChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	resp, _ := register(t, f, "perfil@example.com", "Segura123")

	prof, err := f.svc.Profile.Get(ctx, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "perfil@example.com", prof.Email)
	assert.True(t, prof.HasPassword)
	assert.False(t, prof.GoogleLinked)

	nuevo := "Renombrada"
	prof, err = f.svc.Profile.Update(ctx, resp.UserID, dto.UpdateProfileRequest{Name: &nuevo})
	require.NoError(t, err)
	assert.Equal(t, "Renombrada", prof.Name)

	// password actual incorrecto
	err = f.svc.Profile.ChangePassword(ctx, resp.UserID, dto.ChangePasswordRequest{
		CurrentPassword: "Equivocada1",
		NewPassword:     "OtraSegura456",
	})
	require.ErrorIs(t, err, ErrWrongPassword)

	// cambio válido
	err = f.svc.Profile.ChangePassword(ctx, resp.UserID, dto.ChangePasswordRequest{
		CurrentPassword: "Segura123",
		NewPassword:     "OtraSegura456",
	})
	require.NoError(t, err)

	// reusar la anterior queda bloqueado por historial
	err = f.svc.Profile.ChangePassword(ctx, resp.UserID, dto.ChangePasswordRequest{
		CurrentPassword: "OtraSegura456",
		NewPassword:     "Segura123",
	})
	require.ErrorIs(t, err, ErrPasswordReused)

	// el login refleja la contraseña nueva
	_, _, err = f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "perfil@example.com",
		Password: "OtraSegura456",
	}, token.Metadata{})
	require.NoError(t, err)
}

func TestFlow_PasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	resp, pair := register(t, f, "reset@example.com", "Segura123")

	// email desconocido: silencio, sin correo
	require.NoError(t, f.svc.Reset.Request(ctx, "nadie@example.com"))
	assert.Zero(t, f.sender.sent)

	require.NoError(t, f.svc.Reset.Request(ctx, "reset@example.com"))
	require.Equal(t, 1, f.sender.sent)
	assert.Equal(t, "reset@example.com", f.sender.to)

	// extraer el token crudo del link del correo
	idx := strings.Index(f.sender.text, "token=")
	require.GreaterOrEqual(t, idx, 0, "el correo debe llevar el link de reset")
	raw := f.sender.text[idx+len("token="):]
	if end := strings.IndexAny(raw, " \n\r"); end >= 0 {
		raw = raw[:end]
	}
	require.NotEmpty(t, raw)

	// token inventado no pasa
	err := f.svc.Reset.Confirm(ctx, dto.ResetConfirmRequest{
		Token:       "token-falso",
		NewPassword: "Nueva456Segura",
	})
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	// confirmación válida
	err = f.svc.Reset.Confirm(ctx, dto.ResetConfirmRequest{
		Token:       raw,
		NewPassword: "Nueva456Segura",
	})
	require.NoError(t, err)

	// el token es de un solo uso
	err = f.svc.Reset.Confirm(ctx, dto.ResetConfirmRequest{
		Token:       raw,
		NewPassword: "Tercera789Pass",
	})
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	// el reset revocó las sesiones previas
	_, _, err = f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	// y la contraseña nueva funciona
	login, _, err := f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "reset@example.com",
		Password: "Nueva456Segura",
	}, token.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, login.UserID)
}

func TestFlow_SessionsListAndRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	resp, first := register(t, f, "sesiones@example.com", "Segura123")

	_, second, err := f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "sesiones@example.com",
		Password: "Segura123",
	}, token.Metadata{UserAgent: "tablet"})
	require.NoError(t, err)

	list, err := f.svc.Sessions.List(ctx, resp.UserID, second.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)

	var current int
	for _, s := range list.Sessions {
		if s.Current {
			current++
			assert.Equal(t, second.TokenID, s.TokenID)
		}
	}
	assert.Equal(t, 1, current)

	// revocar una sesión ajena al token dado falla cerrado
	err = f.svc.Sessions.Revoke(ctx, "otro-usuario", first.TokenID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// revocar la primera sesión la saca de juego
	require.NoError(t, f.svc.Sessions.Revoke(ctx, resp.UserID, first.TokenID))
	_, _, err = f.svc.Refresh.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	list, err = f.svc.Sessions.List(ctx, resp.UserID, second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}
