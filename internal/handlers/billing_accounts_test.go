package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/handlers/testutil"
)

func TestBillingAccountsArePublic(t *testing.T) {
	env := testutil.NewEnv(t)
	account := dbtestutil.MustCreateBillingAccount(t, env.DB, "UIS")

	resp := env.Request(http.MethodGet, "/api/billing_accounts", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var accounts []struct {
		ID       string `json:"id"`
		Viewable bool   `json:"viewable"`
		Editable bool   `json:"editable"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &accounts)
	require.Len(t, accounts, 1)
	require.Equal(t, account.ID, accounts[0].ID)
	require.True(t, accounts[0].Viewable)
	require.False(t, accounts[0].Editable)

	resp = env.Request(http.MethodGet, "/api/billing_accounts/"+account.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/billing_accounts/unknown", nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}
