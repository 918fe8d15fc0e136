// Package db wires the SQL connection, migrations and repositories together
// behind a single manager handed to the application at startup.
package db

import (
	"context"
	"database/sql"

	"github.com/akozlenkov/authgate/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
}
