package permissions

import (
	"errors"
	"fmt"

	"github.com/charlesng35/mediaplatform/pkg/metrics"
)

// ErrIntegrity is matched by every IntegrityError.
var ErrIntegrity = errors.New("permission: integrity error")

// IntegrityError reports a resource whose permission record is missing.
type IntegrityError struct {
	Kind     string
	Resource string
	Field    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("permission: %s %s has no %s record", e.Kind, e.Resource, e.Field)
}

// Is lets errors.Is match the ErrIntegrity sentinel.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// Subject is a resource together with its loaded permission records. A nil
// record means the referenced permission row could not be found.
type Subject struct {
	Kind         string
	ID           string
	View         *Record
	Edit         *Record
	Downloadable bool
}

// Access holds the derived flags for one resource and principal.
type Access struct {
	Viewable           bool `json:"viewable"`
	Editable           bool `json:"editable"`
	DownloadableByUser bool `json:"downloadable_by_user"`
}

// Evaluate computes the access flags of principal p on subject s.
func Evaluate(s Subject, p Principal) (Access, error) {
	if s.View == nil {
		metrics.PermissionEvaluations.WithLabelValues(s.Kind, "view", "error").Inc()
		return Access{}, &IntegrityError{Kind: s.Kind, Resource: s.ID, Field: "view_permission"}
	}
	if s.Edit == nil {
		metrics.PermissionEvaluations.WithLabelValues(s.Kind, "edit", "error").Inc()
		return Access{}, &IntegrityError{Kind: s.Kind, Resource: s.ID, Field: "edit_permission"}
	}

	viewable := Satisfies(*s.View, p)
	editable := Satisfies(*s.Edit, p)
	record(s.Kind, "view", viewable)
	record(s.Kind, "edit", editable)

	return Access{
		Viewable:           viewable,
		Editable:           editable,
		DownloadableByUser: DownloadableByUser(viewable, editable, s.Downloadable),
	}, nil
}

// DownloadableByUser reports whether a media item may be downloaded. Editors may
// always download items they can see, whatever the downloadable flag says.
func DownloadableByUser(viewable, editable, downloadable bool) bool {
	return viewable && (downloadable || editable)
}

func record(kind, action string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	metrics.PermissionEvaluations.WithLabelValues(kind, action, result).Inc()
}
