package directory

import (
	"context"
	"fmt"

	"github.com/akozlenkov/authgate/internal/common"
	"github.com/akozlenkov/authgate/internal/logging"
	"github.com/akozlenkov/authgate/internal/server/config"
	"github.com/go-ldap/ldap/v3"
)

// Verifier authenticates credentials against the directory and fetches the
// matching entry's attributes. It is stateless per call; all settings come
// from the Config captured at construction.
type Verifier struct {
	dial   Dialer
	cfg    *config.Config
	logger logging.Logger
}

func NewVerifier(dial Dialer, cfg *config.Config, l logging.Logger) *Verifier {
	return &Verifier{
		dial:   dial,
		cfg:    cfg,
		logger: l.With("module", "directory_verifier"),
	}
}

// Authenticate proves that the username/password pair is valid and returns
// the directory's identity attributes for that username.
//
// Failures map to exactly two sentinels: common.ErrorInvalidCredentials when
// the self-bind is rejected, common.ErrorDirectorySearchFailed for
// everything else (connection, service bind, search error, no entry).
// Underlying directory errors are logged and never surface to callers.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (*User, error) {

	conn, err := v.dial()
	if err != nil {
		v.logger.Error(ctx, "directory connection failed", "error", err.Error())
		return nil, common.ErrorDirectorySearchFailed
	}
	defer func() { _ = conn.Close() }()

	if err := v.bindUser(ctx, conn, username, password); err != nil {
		return nil, err
	}

	return v.searchUser(ctx, conn, username)
}

// bindUser performs the self-bind phase: binding as the user's own DN with
// the supplied password. Any bind error is reported as invalid credentials.
func (v *Verifier) bindUser(ctx context.Context, conn Conn, username, password string) error {
	userDN := fmt.Sprintf("uid=%s,%s", ldap.EscapeDN(username), v.cfg.LDAPSearchBase)

	if err := conn.Bind(userDN, password); err != nil {
		v.logger.Warn(ctx, "self-bind rejected", "username", username, "error", err.Error())
		return common.ErrorInvalidCredentials
	}

	return nil
}

// searchUser performs the service-bind phase: rebinding as the configured
// service identity and searching the subtree for the target uid. The first
// returned entry wins when multiple match.
func (v *Verifier) searchUser(ctx context.Context, conn Conn, username string) (*User, error) {

	if err := conn.Bind(v.serviceBindDN(), v.cfg.LDAPSearchPass); err != nil {
		v.logger.Error(ctx, "service bind failed", "error", err.Error())
		return nil, common.ErrorDirectorySearchFailed
	}

	req := ldap.NewSearchRequest(
		v.cfg.LDAPSearchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		userAttributes,
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		v.logger.Error(ctx, "directory search failed", "username", username, "error", err.Error())
		return nil, common.ErrorDirectorySearchFailed
	}

	if len(result.Entries) == 0 {
		v.logger.Warn(ctx, "no directory entry for username", "username", username)
		return nil, common.ErrorDirectorySearchFailed
	}

	return entryToUser(result.Entries[0]), nil
}

// serviceBindDN builds the DN for the privileged service identity. When no
// bind prefix is configured, the raw search user is used as the leading RDN.
func (v *Verifier) serviceBindDN() string {
	if v.cfg.LDAPBindPrefix != "" {
		return fmt.Sprintf("%s=%s,%s", v.cfg.LDAPBindPrefix, v.cfg.LDAPSearchUser, v.cfg.LDAPBindBase)
	}
	return fmt.Sprintf("%s,%s", v.cfg.LDAPSearchUser, v.cfg.LDAPBindBase)
}
