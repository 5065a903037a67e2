package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"
)

// PostgresStore persists users and verification tokens. Token consumption
// relies on DELETE ... RETURNING so that concurrent presentations of the
// same token resolve to exactly one winner.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, image, email_verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.Image, user.EmailVerified, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, name, image, email_verified, created_at
		 FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, name, image, email_verified, created_at
		 FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Image, &user.EmailVerified, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error) {
	set := make([]string, 0, 4)
	args := []any{id}

	if params.Name != nil {
		args = append(args, *params.Name)
		set = append(set, "name = $"+strconv.Itoa(len(args)))
	}
	if params.Image != nil {
		args = append(args, *params.Image)
		set = append(set, "image = $"+strconv.Itoa(len(args)))
	}
	if params.Email != nil {
		args = append(args, *params.Email)
		// Changing the address invalidates the previous verification.
		set = append(set, "email = $"+strconv.Itoa(len(args)),
			"email_verified = CASE WHEN email = $"+strconv.Itoa(len(args))+" THEN email_verified ELSE NULL END")
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}

	var user User
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = $1
		 RETURNING id, email, name, image, email_verified, created_at`,
		args...,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Image, &user.EmailVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email_verified = $2 WHERE id = $1`,
		id, verifiedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, token VerificationToken) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_tokens WHERE identifier = $1`, token.Identifier,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO verification_tokens (identifier, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.Identifier, token.Token, token.ExpiresAt, token.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Consume(ctx context.Context, token string) (*VerificationToken, error) {
	var vt VerificationToken
	err := s.pool.QueryRow(ctx,
		`DELETE FROM verification_tokens WHERE token = $1
		 RETURNING identifier, token, expires_at, created_at`,
		token,
	).Scan(&vt.Identifier, &vt.Token, &vt.ExpiresAt, &vt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &vt, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ UserStore  = (*PostgresStore)(nil)
	_ TokenStore = (*PostgresStore)(nil)
)
