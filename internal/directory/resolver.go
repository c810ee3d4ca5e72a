package directory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/pkg/logger"
	"github.com/charlesng35/mediaplatform/pkg/metrics"
)

// Resolver builds request principals from an authenticated identifier.
type Resolver struct {
	dir Directory
}

// NewResolver constructs a resolver. A nil directory yields principals without
// any group or institution memberships.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the principal for identifier. An empty identifier is the
// anonymous principal. Directory failures never fail the request: they are
// logged and the principal carries no memberships.
//
// Facts are normalised the way stored grants are (crsids lower case, instids
// upper case) so matching does not depend on the database collation.
func (r *Resolver) Resolve(ctx context.Context, identifier string) permissions.Principal {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return permissions.AnonymousPrincipal()
	}

	principal := permissions.Principal{Identifier: identifier}
	person, err := r.Lookup(ctx, identifier)
	if err != nil {
		return principal
	}
	principal.GroupIDs = person.GroupIDs()
	for _, code := range person.InstitutionCodes() {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			principal.InstitutionCodes = append(principal.InstitutionCodes, code)
		}
	}
	return principal
}

// Lookup fetches the directory record for identifier, recording metrics and
// logging unavailability at warn level.
func (r *Resolver) Lookup(ctx context.Context, identifier string) (*Person, error) {
	if r == nil || r.dir == nil {
		return nil, ErrPersonNotFound
	}
	if ctx == nil {
		ctx = context.Background()
	}

	backend := r.dir.Name()
	person, err := r.dir.LookupPerson(ctx, identifier)
	switch {
	case err == nil:
		metrics.DirectoryLookups.WithLabelValues(backend, "hit").Inc()
		return person, nil
	case errors.Is(err, ErrPersonNotFound):
		metrics.DirectoryLookups.WithLabelValues(backend, "miss").Inc()
		return nil, err
	default:
		metrics.DirectoryLookups.WithLabelValues(backend, "error").Inc()
		logger.WithModule("directory").Warn("person lookup failed",
			zap.String("backend", backend),
			zap.String("crsid", identifier),
			zap.Error(err),
		)
		if !errors.Is(err, ErrLookupUnavailable) {
			err = errors.Join(ErrLookupUnavailable, err)
		}
		return nil, err
	}
}
