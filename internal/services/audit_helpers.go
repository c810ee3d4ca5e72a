package services

import (
	"context"

	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	_ = audit.Log(ctx, entry)
}

func actorOf(principal permissions.Principal) string {
	if principal.Anonymous {
		return ""
	}
	return principal.Identifier
}

func auditResult(err error) string {
	if err != nil {
		return AuditResultFailure
	}
	return AuditResultSuccess
}
