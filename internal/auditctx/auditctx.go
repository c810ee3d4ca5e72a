package auditctx

import "context"

// Actor describes where a change originated. CRSID is only a fallback: services
// record the principal they authorised whenever there is one.
type Actor struct {
	CRSID     string
	Source    string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}

// WithActor returns a derived context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor metadata from the context.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Fields returns the non-empty provenance fields of actor keyed for audit metadata.
func (a Actor) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if a.Source != "" {
		fields["source"] = a.Source
	}
	if a.IPAddress != "" {
		fields["ip_address"] = a.IPAddress
	}
	if a.UserAgent != "" {
		fields["user_agent"] = a.UserAgent
	}
	return fields
}
