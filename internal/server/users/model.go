package users

import "time"

// User is the locally stored copy of a directory identity. The directory is
// the source of truth; rows here are refreshed on every successful login.
type User struct {
	ID        string
	Username  string
	Email     string
	Name      string
	Surname   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
