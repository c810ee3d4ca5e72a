package permissions

// Record is a grant describing which principals satisfy it. Criteria are
// combined with OR; empty collections and false flags contribute nothing.
type Record struct {
	CRSIDs       []string `json:"crsids"`
	LookupGroups []int64  `json:"lookup_groups"`
	LookupInsts  []string `json:"lookup_insts"`
	IsPublic     bool     `json:"is_public"`
	IsSignedIn   bool     `json:"is_signed_in"`
}

// Nobody returns a record that no principal satisfies.
func Nobody() Record {
	return Record{
		CRSIDs:       []string{},
		LookupGroups: []int64{},
		LookupInsts:  []string{},
	}
}

// Public returns a record satisfied by every principal, including anonymous ones.
func Public() Record {
	r := Nobody()
	r.IsPublic = true
	return r
}

// Empty reports whether the record grants nothing.
func (r Record) Empty() bool {
	return !r.IsPublic && !r.IsSignedIn && len(r.CRSIDs) == 0 && len(r.LookupGroups) == 0 && len(r.LookupInsts) == 0
}

// WithCRSID returns a copy of r which additionally grants identifier.
func (r Record) WithCRSID(identifier string) Record {
	out := r.clone()
	if identifier == "" {
		return out
	}
	for _, existing := range out.CRSIDs {
		if existing == identifier {
			return out
		}
	}
	out.CRSIDs = append(out.CRSIDs, identifier)
	return out
}

// Union returns a record satisfied by every principal that satisfies r or other.
func (r Record) Union(other Record) Record {
	out := r.clone()
	for _, crsid := range other.CRSIDs {
		out = out.WithCRSID(crsid)
	}
	out.LookupGroups = appendMissing(out.LookupGroups, other.LookupGroups)
	out.LookupInsts = appendMissing(out.LookupInsts, other.LookupInsts)
	out.IsPublic = r.IsPublic || other.IsPublic
	out.IsSignedIn = r.IsSignedIn || other.IsSignedIn
	return out
}

func appendMissing[T comparable](dst, src []T) []T {
	seen := make(map[T]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

func (r Record) clone() Record {
	out := r
	out.CRSIDs = append([]string{}, r.CRSIDs...)
	out.LookupGroups = append([]int64{}, r.LookupGroups...)
	out.LookupInsts = append([]string{}, r.LookupInsts...)
	return out
}
