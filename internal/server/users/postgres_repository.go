package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akozlenkov/authgate/internal/common"
	"github.com/akozlenkov/authgate/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository accepts any DBTX so the same repository works on a
// plain connection or inside a transaction.
func NewPostgresRepository(db dbx.DBTX) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

// Upsert writes the user in a single statement so concurrent logins for the
// same username cannot race a separate lookup-then-insert. The username
// uniqueness constraint arbitrates; the loser of the insert updates instead.
func (r *PostgresRepository) Upsert(ctx context.Context, user *User) (*User, error) {

	query :=
		`INSERT INTO users (username, email, name, surname)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO UPDATE
		    SET email = EXCLUDED.email,
		        name = EXCLUDED.name,
		        surname = EXCLUDED.surname,
		        updated_at = now()
		 RETURNING id, username, email, name, surname, created_at, updated_at
		 `

	stored := &User{}
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Name, user.Surname).
		Scan(&stored.ID, &stored.Username, &stored.Email, &stored.Name,
			&stored.Surname, &stored.CreatedAt, &stored.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return stored, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, username, email, name, surname, created_at, updated_at FROM users
		 WHERE username = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.Name,
			&user.Surname, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT id, username, email, name, surname, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.Name,
			&user.Surname, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}
