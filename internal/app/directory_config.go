package app

import (
	"strings"

	"github.com/charlesng35/mediaplatform/internal/directory"
)

// Directory backends.
const (
	DirectoryBackendNone = "none"
	DirectoryBackendLDAP = "ldap"
	DirectoryBackendHTTP = "http"
)

// BackendName returns the normalised backend name, defaulting to none.
func (c DirectoryConfig) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return DirectoryBackendNone
	}
	return backend
}

// LDAPConfig converts the LDAP settings into the directory package representation.
func (c DirectoryConfig) LDAPConfig() directory.LDAPConfig {
	return directory.LDAPConfig{
		Host:         strings.TrimSpace(c.LDAP.Host),
		Port:         c.LDAP.Port,
		UseTLS:       c.LDAP.UseTLS,
		SkipVerify:   c.LDAP.SkipVerify,
		BindDN:       strings.TrimSpace(c.LDAP.BindDN),
		BindPassword: c.LDAP.BindPassword,
		PeopleBaseDN: strings.TrimSpace(c.LDAP.PeopleBaseDN),
		PersonFilter: strings.TrimSpace(c.LDAP.PersonFilter),
		Timeout:      c.LDAP.Timeout,
		Attributes: directory.LDAPAttributes{
			DisplayName:  c.LDAP.Attributes.DisplayName,
			VisibleName:  c.LDAP.Attributes.VisibleName,
			Groups:       c.LDAP.Attributes.Groups,
			Institutions: c.LDAP.Attributes.Institutions,
		},
	}
}

// HTTPConfig converts the Lookup REST settings into the directory package representation.
func (c DirectoryConfig) HTTPConfig() directory.HTTPConfig {
	return directory.HTTPConfig{
		BaseURL:  strings.TrimRight(strings.TrimSpace(c.HTTP.BaseURL), "/"),
		Username: strings.TrimSpace(c.HTTP.Username),
		Password: c.HTTP.Password,
		Timeout:  c.HTTP.Timeout,
		Retries:  c.HTTP.Retries,
	}
}
