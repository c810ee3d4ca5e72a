package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// LDAPConfig describes the Lookup LDAP service.
type LDAPConfig struct {
	Host         string
	Port         int
	UseTLS       bool
	SkipVerify   bool
	BindDN       string
	BindPassword string
	PeopleBaseDN string
	PersonFilter string
	Timeout      time.Duration
	Attributes   LDAPAttributes
}

// LDAPAttributes names the entry attributes holding person details.
type LDAPAttributes struct {
	DisplayName  string
	VisibleName  string
	Groups       string
	Institutions string
}

// LDAP looks people up over LDAP.
type LDAP struct {
	cfg LDAPConfig
}

// NewLDAP validates cfg and fills attribute defaults for the Lookup schema.
func NewLDAP(cfg LDAPConfig) (*LDAP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("ldap directory: host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("ldap directory: port must be positive")
	}
	if strings.TrimSpace(cfg.PeopleBaseDN) == "" {
		return nil, errors.New("ldap directory: people base dn is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attributes.DisplayName == "" {
		cfg.Attributes.DisplayName = "displayName"
	}
	if cfg.Attributes.VisibleName == "" {
		cfg.Attributes.VisibleName = "cn"
	}
	if cfg.Attributes.Groups == "" {
		cfg.Attributes.Groups = "groupID"
	}
	if cfg.Attributes.Institutions == "" {
		cfg.Attributes.Institutions = "instID"
	}
	return &LDAP{cfg: cfg}, nil
}

// Name identifies the backend in metrics and logs.
func (l *LDAP) Name() string { return "ldap" }

// LookupPerson implements Directory.
func (l *LDAP) LookupPerson(ctx context.Context, crsid string) (*Person, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}

	scheme := "ldap"
	dialOpts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: l.cfg.Timeout})}
	if l.cfg.UseTLS {
		scheme = "ldaps"
		dialOpts = append(dialOpts, ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: l.cfg.SkipVerify}))
	}

	conn, err := ldap.DialURL(fmt.Sprintf("%s://%s:%d", scheme, l.cfg.Host, l.cfg.Port), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrLookupUnavailable, err)
	}
	defer conn.Close()
	conn.SetTimeout(l.cfg.Timeout)

	if strings.TrimSpace(l.cfg.BindDN) != "" {
		if err := conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("%w: bind: %v", ErrLookupUnavailable, err)
		}
	}

	request := ldap.NewSearchRequest(
		l.cfg.PeopleBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1,
		int(l.cfg.Timeout/time.Second),
		false,
		personFilter(l.cfg.PersonFilter, crsid),
		l.attributeList(),
		nil,
	)

	result, err := conn.Search(request)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("%w: search: %v", ErrLookupUnavailable, err)
	}
	if len(result.Entries) == 0 {
		return nil, ErrPersonNotFound
	}

	return l.personFromEntry(crsid, result.Entries[0]), nil
}

func (l *LDAP) attributeList() []string {
	return []string{
		"uid",
		l.cfg.Attributes.DisplayName,
		l.cfg.Attributes.VisibleName,
		l.cfg.Attributes.Groups,
		l.cfg.Attributes.Institutions,
	}
}

func (l *LDAP) personFromEntry(crsid string, entry *ldap.Entry) *Person {
	person := &Person{
		CRSID:       entry.GetAttributeValue("uid"),
		DisplayName: entry.GetAttributeValue(l.cfg.Attributes.DisplayName),
		VisibleName: entry.GetAttributeValue(l.cfg.Attributes.VisibleName),
		Groups:      parseGroupIDs(entry.GetAttributeValues(l.cfg.Attributes.Groups)),
	}
	if person.CRSID == "" {
		person.CRSID = crsid
	}
	for _, inst := range entry.GetAttributeValues(l.cfg.Attributes.Institutions) {
		if inst = strings.TrimSpace(inst); inst != "" {
			person.Institutions = append(person.Institutions, Institution{InstID: inst})
		}
	}
	return person
}

func personFilter(template, crsid string) string {
	escaped := ldap.EscapeFilter(crsid)
	if strings.TrimSpace(template) == "" {
		return fmt.Sprintf("(uid=%s)", escaped)
	}
	filter := strings.ReplaceAll(template, "{crsid}", escaped)
	return strings.ReplaceAll(filter, "{identifier}", escaped)
}
