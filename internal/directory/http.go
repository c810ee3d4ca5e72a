package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig describes the Lookup web service.
type HTTPConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Retries  int
}

// HTTP looks people up through the Lookup REST API.
type HTTP struct {
	client *resty.Client
}

type lookupEnvelope struct {
	Result struct {
		Person *lookupPerson `json:"person"`
	} `json:"result"`
}

type lookupPerson struct {
	Identifier struct {
		Scheme string `json:"scheme"`
		Value  string `json:"value"`
	} `json:"identifier"`
	DisplayName  string `json:"displayName"`
	VisibleName  string `json:"visibleName"`
	Institutions []struct {
		InstID string `json:"instid"`
		Name   string `json:"name"`
	} `json:"institutions"`
	Groups []struct {
		GroupID string `json:"groupid"`
		Name    string `json:"name"`
	} `json:"groups"`
}

// NewHTTP builds a client for the Lookup API rooted at cfg.BaseURL.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("http directory: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &HTTP{client: client}, nil
}

// Name identifies the backend in metrics and logs.
func (h *HTTP) Name() string { return "http" }

// LookupPerson implements Directory.
func (h *HTTP) LookupPerson(ctx context.Context, crsid string) (*Person, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var envelope lookupEnvelope
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("crsid", crsid).
		SetQueryParams(map[string]string{
			"fetch":  "all_groups,all_insts",
			"format": "json",
		}).
		SetResult(&envelope).
		Get("/person/crsid/{crsid}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrPersonNotFound
	case resp.IsError():
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLookupUnavailable, resp.StatusCode())
	}

	if envelope.Result.Person == nil {
		return nil, ErrPersonNotFound
	}
	return envelope.Result.Person.toPerson(crsid), nil
}

func (p *lookupPerson) toPerson(crsid string) *Person {
	person := &Person{
		CRSID:       p.Identifier.Value,
		DisplayName: p.DisplayName,
		VisibleName: p.VisibleName,
	}
	if person.CRSID == "" {
		person.CRSID = crsid
	}

	for _, g := range p.Groups {
		id, err := strconv.ParseInt(g.GroupID, 10, 64)
		if err != nil {
			continue
		}
		person.Groups = append(person.Groups, Group{ID: id, Name: g.Name})
	}

	for _, inst := range p.Institutions {
		if inst.InstID == "" {
			continue
		}
		person.Institutions = append(person.Institutions, Institution{InstID: inst.InstID, Name: inst.Name})
	}
	return person
}
