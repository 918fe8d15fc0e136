package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/akozlenkov/authgate/internal/common"
	"github.com/akozlenkov/authgate/internal/logging"
	"github.com/akozlenkov/authgate/internal/server/config"
	"github.com/go-ldap/ldap/v3"
)

type bindCall struct {
	dn       string
	password string
}

type fakeConn struct {
	binds       []bindCall
	bindErrs    []error
	searchReq   *ldap.SearchRequest
	searchRes   *ldap.SearchResult
	searchErr   error
	closed      bool
	searchCalls int
}

func (f *fakeConn) Bind(dn, password string) error {
	f.binds = append(f.binds, bindCall{dn: dn, password: password})
	i := len(f.binds) - 1
	if i < len(f.bindErrs) {
		return f.bindErrs[i]
	}
	return nil
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.searchCalls++
	f.searchReq = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRes, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func testEntry(uid, mail, sn, givenName string) *ldap.Entry {
	return ldap.NewEntry("uid="+uid+",ou=people,dc=example,dc=com", map[string][]string{
		"uid":       {uid},
		"mail":      {mail},
		"sn":        {sn},
		"givenName": {givenName},
		"cn":        {givenName + " " + sn},
	})
}

func testConfig() *config.Config {
	return &config.Config{
		LDAPServer:     "ldap://localhost:389",
		LDAPSearchBase: "ou=people,dc=example,dc=com",
		LDAPBindBase:   "dc=example,dc=com",
		LDAPSearchUser: "svc-auth",
		LDAPSearchPass: "svc-secret",
		LDAPBindPrefix: "cn",
	}
}

func testVerifier(conn *fakeConn, dialErr error, cfg *config.Config) *Verifier {
	dial := func() (Conn, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return conn, nil
	}
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewVerifier(dial, cfg, l)
}

func TestVerifier_DialError(t *testing.T) {
	v := testVerifier(nil, errors.New("connection refused"), testConfig())

	_, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if !errors.Is(err, common.ErrorDirectorySearchFailed) {
		t.Fatalf("want ErrorDirectorySearchFailed, got %v", err)
	}
}

func TestVerifier_SelfBindRejected(t *testing.T) {
	conn := &fakeConn{bindErrs: []error{errors.New("invalid credentials (49)")}}
	v := testVerifier(conn, nil, testConfig())

	_, err := v.Authenticate(context.Background(), "jdoe", "wrong")
	if !errors.Is(err, common.ErrorInvalidCredentials) {
		t.Fatalf("want ErrorInvalidCredentials, got %v", err)
	}
	if conn.searchCalls != 0 {
		t.Fatal("search must not run when the self-bind fails")
	}
	if !conn.closed {
		t.Fatal("connection was not closed")
	}
	if got := conn.binds[0].dn; got != "uid=jdoe,ou=people,dc=example,dc=com" {
		t.Fatalf("unexpected self-bind DN: %s", got)
	}
	if got := conn.binds[0].password; got != "wrong" {
		t.Fatalf("unexpected self-bind password: %s", got)
	}
}

func TestVerifier_ServiceBindFailed(t *testing.T) {
	conn := &fakeConn{bindErrs: []error{nil, errors.New("invalid credentials (49)")}}
	v := testVerifier(conn, nil, testConfig())

	_, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if !errors.Is(err, common.ErrorDirectorySearchFailed) {
		t.Fatalf("want ErrorDirectorySearchFailed, got %v", err)
	}
	if got := conn.binds[1].dn; got != "cn=svc-auth,dc=example,dc=com" {
		t.Fatalf("unexpected service-bind DN: %s", got)
	}
	if got := conn.binds[1].password; got != "svc-secret" {
		t.Fatalf("unexpected service-bind password: %s", got)
	}
}

func TestVerifier_ServiceBindWithoutPrefix(t *testing.T) {
	cfg := testConfig()
	cfg.LDAPBindPrefix = ""
	cfg.LDAPSearchUser = "cn=svc-auth,ou=services"
	conn := &fakeConn{searchRes: &ldap.SearchResult{
		Entries: []*ldap.Entry{testEntry("jdoe", "jdoe@example.com", "Doe", "John")},
	}}
	v := testVerifier(conn, nil, cfg)

	if _, err := v.Authenticate(context.Background(), "jdoe", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := conn.binds[1].dn; got != "cn=svc-auth,ou=services,dc=example,dc=com" {
		t.Fatalf("unexpected service-bind DN: %s", got)
	}
}

func TestVerifier_SearchError(t *testing.T) {
	conn := &fakeConn{searchErr: errors.New("operations error")}
	v := testVerifier(conn, nil, testConfig())

	_, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if !errors.Is(err, common.ErrorDirectorySearchFailed) {
		t.Fatalf("want ErrorDirectorySearchFailed, got %v", err)
	}
}

func TestVerifier_NoEntries(t *testing.T) {
	conn := &fakeConn{searchRes: &ldap.SearchResult{}}
	v := testVerifier(conn, nil, testConfig())

	_, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if !errors.Is(err, common.ErrorDirectorySearchFailed) {
		t.Fatalf("want ErrorDirectorySearchFailed, got %v", err)
	}
}

func TestVerifier_Success(t *testing.T) {
	conn := &fakeConn{searchRes: &ldap.SearchResult{
		Entries: []*ldap.Entry{testEntry("jdoe", "jdoe@example.com", "Doe", "John")},
	}}
	v := testVerifier(conn, nil, testConfig())

	user, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.UID != "jdoe" {
		t.Errorf("uid: want jdoe, got %s", user.UID)
	}
	if user.Mail != "jdoe@example.com" {
		t.Errorf("mail: want jdoe@example.com, got %s", user.Mail)
	}
	if user.Surname != "Doe" {
		t.Errorf("surname: want Doe, got %s", user.Surname)
	}
	if user.GivenName != "John" {
		t.Errorf("given name: want John, got %s", user.GivenName)
	}
	if !conn.closed {
		t.Fatal("connection was not closed")
	}

	if conn.searchReq.BaseDN != "ou=people,dc=example,dc=com" {
		t.Errorf("unexpected search base: %s", conn.searchReq.BaseDN)
	}
	if conn.searchReq.Scope != ldap.ScopeWholeSubtree {
		t.Errorf("unexpected search scope: %d", conn.searchReq.Scope)
	}
	if conn.searchReq.Filter != "(uid=jdoe)" {
		t.Errorf("unexpected filter: %s", conn.searchReq.Filter)
	}
}

func TestVerifier_FirstEntryWins(t *testing.T) {
	conn := &fakeConn{searchRes: &ldap.SearchResult{
		Entries: []*ldap.Entry{
			testEntry("jdoe", "jdoe@example.com", "Doe", "John"),
			testEntry("jdoe", "duplicate@example.com", "Dup", "Dup"),
		},
	}}
	v := testVerifier(conn, nil, testConfig())

	user, err := v.Authenticate(context.Background(), "jdoe", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Mail != "jdoe@example.com" {
		t.Fatalf("want first entry's mail, got %s", user.Mail)
	}
}

func TestVerifier_EscapesFilterMetacharacters(t *testing.T) {
	conn := &fakeConn{searchRes: &ldap.SearchResult{
		Entries: []*ldap.Entry{testEntry("jdoe", "jdoe@example.com", "Doe", "John")},
	}}
	v := testVerifier(conn, nil, testConfig())

	if _, err := v.Authenticate(context.Background(), "j*(doe)", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.searchReq.Filter != `(uid=j\2a\28doe\29)` {
		t.Fatalf("filter metacharacters not escaped: %s", conn.searchReq.Filter)
	}
}
