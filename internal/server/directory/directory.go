// Package directory verifies user credentials against an external LDAP
// directory and fetches the canonical identity attributes for a username.
//
// Verification is two-phase: a self-bind with the supplied password proves
// the credential, then a privileged service identity performs the attribute
// lookup. Proving a password only requires the directory's bind semantics;
// it does not imply read access to the full attribute set, so the lookup
// runs under a separate identity and the self-bind stays a pure password
// check.
package directory

import (
	"github.com/go-ldap/ldap/v3"
)

// User is an immutable snapshot of one directory lookup. All values are
// sourced verbatim from the directory entry.
type User struct {
	UID              string
	EmployeeNumber   string
	DepartmentNumber string
	DisplayName      string
	Surname          string
	CommonName       string
	Mail             string
	GivenName        string
}

// Conn is the subset of an LDAP connection used by the Verifier. Both
// *ldap.Conn and test fakes satisfy it. A production implementation may
// pool connections behind a Dialer without changing the Verifier.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a fresh directory connection. One connection is opened per
// authentication request and closed before the request returns.
type Dialer func() (Conn, error)

// DialURL returns a Dialer that connects to the given LDAP URL
// (ldap:// or ldaps://).
func DialURL(url string) Dialer {
	return func() (Conn, error) {
		return ldap.DialURL(url)
	}
}

var userAttributes = []string{
	"uid",
	"employeeNumber",
	"departmentNumber",
	"displayName",
	"sn",
	"cn",
	"mail",
	"givenName",
}

func entryToUser(entry *ldap.Entry) *User {
	return &User{
		UID:              entry.GetAttributeValue("uid"),
		EmployeeNumber:   entry.GetAttributeValue("employeeNumber"),
		DepartmentNumber: entry.GetAttributeValue("departmentNumber"),
		DisplayName:      entry.GetAttributeValue("displayName"),
		Surname:          entry.GetAttributeValue("sn"),
		CommonName:       entry.GetAttributeValue("cn"),
		Mail:             entry.GetAttributeValue("mail"),
		GivenName:        entry.GetAttributeValue("givenName"),
	}
}
