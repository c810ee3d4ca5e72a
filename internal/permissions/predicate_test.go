package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredicateAnonymousOmitsIdentityTerms(t *testing.T) {
	sql, vars := Predicate("media_items.view_permission_id", AnonymousPrincipal())

	require.Equal(t, "(media_items.view_permission_id IN (SELECT id FROM permissions WHERE is_public = ?))", sql)
	require.Equal(t, []any{true}, vars)
}

func TestPredicateSignedInIncludesMemberTerms(t *testing.T) {
	p := Principal{Identifier: "spqr1", GroupIDs: []int64{12345}, InstitutionCodes: []string{"UIS"}}
	sql, vars := Predicate("playlists.edit_permission_id", p)

	require.Equal(t,
		"(playlists.edit_permission_id IN (SELECT id FROM permissions WHERE is_public = ? OR is_signed_in = ?)"+
			" OR playlists.edit_permission_id IN (SELECT permission_id FROM permission_members WHERE"+
			" (kind = ? AND value = ?) OR (kind = ? AND value IN ?) OR (kind = ? AND value IN ?)))",
		sql)
	require.Equal(t, []any{true, true, MemberCRSID, "spqr1", MemberLookupGroup, []string{"12345"}, MemberLookupInst, []string{"UIS"}}, vars)
}

func TestPredicateSignedInWithoutIdentifierSkipsCRSIDTerm(t *testing.T) {
	sql, vars := Predicate("channels.view_permission_id", Principal{})

	require.NotContains(t, sql, "permission_members")
	require.Equal(t, []any{true, true}, vars)
}
