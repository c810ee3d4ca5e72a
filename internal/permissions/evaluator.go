package permissions

// Satisfies reports whether principal p is granted by record r.
//
// A record is satisfied when any of the following hold:
//   - it is public;
//   - it admits signed-in users and p is not anonymous;
//   - p is not anonymous and its identifier is listed in CRSIDs;
//   - p belongs to one of LookupGroups;
//   - p belongs to one of LookupInsts.
//
// Group and institution facts are not checked against Anonymous; the resolver
// guarantees they are empty for anonymous principals.
func Satisfies(r Record, p Principal) bool {
	if r.IsPublic {
		return true
	}
	if !p.Anonymous && r.IsSignedIn {
		return true
	}
	if !p.Anonymous && p.Identifier != "" {
		for _, crsid := range r.CRSIDs {
			if crsid == p.Identifier {
				return true
			}
		}
	}
	if intersects(r.LookupGroups, p.GroupIDs) {
		return true
	}
	return intersects(r.LookupInsts, p.InstitutionCodes)
}

func intersects[T comparable](granted, held []T) bool {
	if len(granted) == 0 || len(held) == 0 {
		return false
	}
	set := make(map[T]struct{}, len(held))
	for _, v := range held {
		set[v] = struct{}{}
	}
	for _, v := range granted {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
