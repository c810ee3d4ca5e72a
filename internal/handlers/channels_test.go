package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/directory"
	"github.com/charlesng35/mediaplatform/internal/handlers/testutil"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

type channelPayload struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	BillingAccountID string `json:"billing_account_id"`
	Editable         bool   `json:"editable"`
	MediaCount       int64  `json:"media_count"`
}

func TestChannelCreateRequiresBillingAccountGrant(t *testing.T) {
	env := testutil.NewEnv(t)
	account := dbtestutil.MustCreateBillingAccount(t, env.DB, "UIS")

	env.Directory.Put(directory.Person{
		CRSID:        "uis1",
		Institutions: []directory.Institution{{InstID: "UIS"}},
	})

	payload := map[string]any{"title": "Lectures", "billing_account_id": account.ID}

	resp := env.Request(http.MethodPost, "/api/channels", payload, env.Token("other1"))
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPost, "/api/channels", map[string]any{"billing_account_id": account.ID}, env.Token("uis1"))
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPost, "/api/channels", payload, env.Token("uis1"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created channelPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &created)
	require.Equal(t, "Lectures", created.Title)
	require.Equal(t, account.ID, created.BillingAccountID)
	require.True(t, created.Editable)

	// Channels are publicly viewable but only the creator may edit.
	resp = env.Request(http.MethodGet, "/api/channels/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var anonymousView channelPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &anonymousView)
	require.False(t, anonymousView.Editable)
}

func TestChannelGetCountsViewableMedia(t *testing.T) {
	env := testutil.NewEnv(t)
	_, channel := seedChannel(t, env.DB)
	dbtestutil.MustCreateMediaItem(t, env.DB, channel.ID, permissions.Public(), permissions.Nobody(), false)
	dbtestutil.MustCreateMediaItem(t, env.DB, channel.ID, crsids("spqr1"), permissions.Nobody(), false)

	resp := env.Request(http.MethodGet, "/api/channels/"+channel.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var anonymous channelPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &anonymous)
	require.Equal(t, int64(1), anonymous.MediaCount)

	resp = env.Request(http.MethodGet, "/api/channels/"+channel.ID, nil, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var owner channelPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &owner)
	require.Equal(t, int64(2), owner.MediaCount)
	require.True(t, owner.Editable)
}

func TestChannelUpdateAndDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	_, channel := seedChannel(t, env.DB)

	resp := env.Request(http.MethodPatch, "/api/channels/"+channel.ID, map[string]any{"title": "Renamed"}, env.Token("abc12"))
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPatch, "/api/channels/"+channel.ID, map[string]any{"title": "Renamed"}, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated channelPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &updated)
	require.Equal(t, "Renamed", updated.Title)

	resp = env.Request(http.MethodDelete, "/api/channels/"+channel.ID, nil, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/channels/"+channel.ID, nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	require.Equal(t, "CHANNEL_NOT_FOUND", testutil.DecodeResponse(t, resp).Error.Code)
}
