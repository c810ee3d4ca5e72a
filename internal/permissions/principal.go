package permissions

// Principal describes the acting user for a single request. It is built by the
// directory resolver and never persisted.
type Principal struct {
	Anonymous        bool
	Identifier       string
	GroupIDs         []int64
	InstitutionCodes []string
}

// AnonymousPrincipal returns the principal used for requests without credentials.
func AnonymousPrincipal() Principal {
	return Principal{Anonymous: true}
}

// SignedIn reports whether the principal is authenticated.
func (p Principal) SignedIn() bool {
	return !p.Anonymous
}
