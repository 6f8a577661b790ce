package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"batchbook/internal/domain"
)

// OTPRepository define el contrato de persistencia para challenges OTP.
// La tabla otps tiene identifier como clave primaria: una fila por
// identificador, reemplazada en cada nueva solicitud.
type OTPRepository interface {
	Upsert(ctx context.Context, challenge domain.OTPChallenge) error
	Get(ctx context.Context, identifier string) (domain.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, identifier string) error
	MarkUsed(ctx context.Context, identifier string) error
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Upsert(ctx context.Context, challenge domain.OTPChallenge) error {
	const query = `
		INSERT INTO otps (identifier, code, type, expires_at, attempts, is_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identifier) DO UPDATE
		SET code = EXCLUDED.code,
		    type = EXCLUDED.type,
		    expires_at = EXCLUDED.expires_at,
		    attempts = EXCLUDED.attempts,
		    is_used = EXCLUDED.is_used
	`
	_, err := r.pool.Exec(ctx, query,
		challenge.Identifier,
		challenge.Code,
		challenge.Type,
		challenge.ExpiresAt,
		challenge.Attempts,
		challenge.IsUsed,
	)
	return err
}

func (r *PgOTPRepository) Get(ctx context.Context, identifier string) (domain.OTPChallenge, error) {
	const query = `
		SELECT identifier, code, type, expires_at, attempts, is_used
		FROM otps
		WHERE identifier = $1
	`
	var c domain.OTPChallenge
	err := r.pool.QueryRow(ctx, query, identifier).Scan(
		&c.Identifier,
		&c.Code,
		&c.Type,
		&c.ExpiresAt,
		&c.Attempts,
		&c.IsUsed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OTPChallenge{}, err
	}
	return c, err
}

func (r *PgOTPRepository) IncrementAttempts(ctx context.Context, identifier string) error {
	const query = `
		UPDATE otps SET attempts = attempts + 1
		WHERE identifier = $1
	`
	_, err := r.pool.Exec(ctx, query, identifier)
	return err
}

func (r *PgOTPRepository) MarkUsed(ctx context.Context, identifier string) error {
	const query = `
		UPDATE otps SET is_used = true
		WHERE identifier = $1
	`
	_, err := r.pool.Exec(ctx, query, identifier)
	return err
}
