package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/token"
)

// stubVerifier acepta un único id_token conocido y devuelve la identidad fija.
type stubVerifier struct {
	provider string
	accept   string
	identity oauth.Identity
}

func (v *stubVerifier) Provider() string { return v.provider }

func (v *stubVerifier) Verify(_ context.Context, idToken string) (*oauth.Identity, error) {
	if idToken != v.accept {
		return nil, fmt.Errorf("unknown id_token")
	}
	ident := v.identity
	return &ident, nil
}

func googleStub(subject, email string, verified bool) *stubVerifier {
	return &stubVerifier{
		provider: "google",
		accept:   "token-valido",
		identity: oauth.Identity{
			Provider:      "google",
			Subject:       subject,
			Email:         email,
			EmailVerified: verified,
			Name:          "Fede Rada",
		},
	}
}

func TestSocialLogin_CreatesAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	v := googleStub("g-111", "fede@example.com", true)

	resp, pair, err := f.svc.Social.Login(ctx, v, "token-valido", token.Metadata{})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.True(t, resp.Created)
	assert.Equal(t, "fede@example.com", resp.Email)

	// segunda vez: misma cuenta, sin crear
	again, _, err := f.svc.Social.Login(ctx, v, "token-valido", token.Metadata{})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, resp.UserID, again.UserID)

	// la cuenta federada tiene perfil con Google vinculado y password interno
	prof, err := f.svc.Profile.Get(ctx, resp.UserID)
	require.NoError(t, err)
	assert.True(t, prof.GoogleLinked)
	assert.True(t, prof.HasPassword)
}

func TestSocialLogin_LinksExistingByEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	local, _ := register(t, f, "mixta@example.com", "Segura123")

	v := googleStub("g-222", "mixta@example.com", true)
	resp, _, err := f.svc.Social.Login(ctx, v, "token-valido", token.Metadata{})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, local.UserID, resp.UserID)

	// el password local sigue funcionando después de vincular
	_, _, err = f.svc.Login.Login(ctx, dto.LoginRequest{
		Email:    "mixta@example.com",
		Password: "Segura123",
	}, token.Metadata{})
	require.NoError(t, err)
}

func TestSocialLogin_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	v := googleStub("g-333", "alguien@example.com", true)

	// id_token vacío o desconocido
	_, _, err := f.svc.Social.Login(ctx, v, "", token.Metadata{})
	require.ErrorIs(t, err, ErrIDTokenInvalid)
	_, _, err = f.svc.Social.Login(ctx, v, "token-robado", token.Metadata{})
	require.ErrorIs(t, err, ErrIDTokenInvalid)

	// email sin verificar
	unverified := googleStub("g-444", "dudoso@example.com", false)
	_, _, err = f.svc.Social.Login(ctx, unverified, "token-valido", token.Metadata{})
	require.ErrorIs(t, err, ErrEmailUnverified)
}

func TestSocialLogin_ProviderConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	// cuenta ya vinculada al subject g-1
	first := googleStub("g-1", "dueña@example.com", true)
	_, _, err := f.svc.Social.Login(ctx, first, "token-valido", token.Metadata{})
	require.NoError(t, err)

	// otro subject de Google reclama el mismo email
	intruder := googleStub("g-2", "dueña@example.com", true)
	_, _, err = f.svc.Social.Login(ctx, intruder, "token-valido", token.Metadata{})
	require.ErrorIs(t, err, ErrProviderLinked)
}
