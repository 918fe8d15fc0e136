package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/akozlenkov/authgate/internal/flagx"
	"github.com/akozlenkov/authgate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	LDAPServer            string         `json:"ldap_server"`
	LDAPSearchBase        string         `json:"ldap_search_base"`
	LDAPBindBase          string         `json:"ldap_bind_base"`
	LDAPSearchUser        string         `json:"ldap_search_user"`
	LDAPSearchPass        string         `json:"ldap_search_pass"`
	LDAPBindPrefix        string         `json:"ldap_bind_prefix"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics: a broken config file should
// stop the process before it opens any listener.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.LDAPServer = c.LDAPServer
	config.LDAPSearchBase = c.LDAPSearchBase
	config.LDAPBindBase = c.LDAPBindBase
	config.LDAPSearchUser = c.LDAPSearchUser
	config.LDAPSearchPass = c.LDAPSearchPass
	config.LDAPBindPrefix = c.LDAPBindPrefix
}
