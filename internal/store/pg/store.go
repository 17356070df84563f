// Package pg implementa UserRepository sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

// New abre el pool contra el DSN dado y verifica conectividad.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		pcfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, email, name, role, team_id, password_hash, password_history,
	google_id, microsoft_id, reset_token_hash, reset_expires_at, created_at, updated_at`

func (s *Store) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.getBy(ctx, "email = $1", strings.ToLower(email))
}

func (s *Store) GetByID(ctx context.Context, id string) (*core.User, error) {
	return s.getBy(ctx, "id = $1", id)
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*core.User, error) {
	if googleID == "" {
		return nil, core.ErrNotFound
	}
	return s.getBy(ctx, "google_id = $1", googleID)
}

func (s *Store) GetByMicrosoftID(ctx context.Context, microsoftID string) (*core.User, error) {
	if microsoftID == "" {
		return nil, core.ErrNotFound
	}
	return s.getBy(ctx, "microsoft_id = $1", microsoftID)
}

func (s *Store) Create(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	histJSON, err := json.Marshal(u.PasswordHistory)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		u.ID, u.Email, u.Name, string(u.Role), nullIfEmpty(u.TeamID),
		u.PasswordHash, histJSON,
		nullIfEmpty(u.GoogleID), nullIfEmpty(u.MicrosoftID),
		nullIfEmpty(u.ResetTokenHash), nullIfZero(u.ResetExpiresAt),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) Update(ctx context.Context, u *core.User) error {
	u.UpdatedAt = time.Now().UTC()

	histJSON, err := json.Marshal(u.PasswordHistory)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET email=$2, name=$3, role=$4, team_id=$5, password_hash=$6,
			password_history=$7, google_id=$8, microsoft_id=$9,
			reset_token_hash=$10, reset_expires_at=$11, updated_at=$12
		WHERE id=$1`,
		u.ID, strings.ToLower(u.Email), u.Name, string(u.Role), nullIfEmpty(u.TeamID),
		u.PasswordHash, histJSON,
		nullIfEmpty(u.GoogleID), nullIfEmpty(u.MicrosoftID),
		nullIfEmpty(u.ResetTokenHash), nullIfZero(u.ResetExpiresAt),
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ─── Internal ───

func (s *Store) getBy(ctx context.Context, where string, arg any) (*core.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	var u core.User
	var role string
	var teamID, googleID, microsoftID, resetHash *string
	var resetExp *time.Time
	var histJSON []byte

	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &teamID,
		&u.PasswordHash, &histJSON,
		&googleID, &microsoftID, &resetHash, &resetExp,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	u.Role = core.Role(role)
	u.TeamID = deref(teamID)
	u.GoogleID = deref(googleID)
	u.MicrosoftID = deref(microsoftID)
	u.ResetTokenHash = deref(resetHash)
	if resetExp != nil {
		u.ResetExpiresAt = *resetExp
	}
	if len(histJSON) > 0 {
		var hist []password.HistoryEntry
		if err := json.Unmarshal(histJSON, &hist); err == nil {
			u.PasswordHistory = hist
		}
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
