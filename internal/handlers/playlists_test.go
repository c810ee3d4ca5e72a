package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/handlers/testutil"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

type playlistPayload struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	MediaIDs   []string       `json:"media_ids"`
	Editable   bool           `json:"editable"`
	MediaItems []mediaPayload `json:"media_items"`
}

func TestPlaylistGetExpandsViewableItems(t *testing.T) {
	env := testutil.NewEnv(t)
	_, channel := seedChannel(t, env.DB)

	public := dbtestutil.MustCreateMediaItem(t, env.DB, channel.ID, permissions.Public(), permissions.Nobody(), false)
	private := dbtestutil.MustCreateMediaItem(t, env.DB, channel.ID, crsids("spqr1"), permissions.Nobody(), false)
	playlist := dbtestutil.MustCreatePlaylist(t, env.DB, channel.ID, permissions.Public(), crsids("spqr1"),
		private.ID, "missing-item", public.ID)

	resp := env.Request(http.MethodGet, "/api/playlists/"+playlist.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var anonymous playlistPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &anonymous)
	require.Equal(t, []string{private.ID, "missing-item", public.ID}, anonymous.MediaIDs)
	require.Len(t, anonymous.MediaItems, 1)
	require.Equal(t, public.ID, anonymous.MediaItems[0].ID)
	require.False(t, anonymous.Editable)

	resp = env.Request(http.MethodGet, "/api/playlists/"+playlist.ID, nil, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var owner playlistPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &owner)
	require.Len(t, owner.MediaItems, 2)
	require.Equal(t, private.ID, owner.MediaItems[0].ID)
	require.Equal(t, public.ID, owner.MediaItems[1].ID)
	require.True(t, owner.Editable)
}

func TestPlaylistCreateUpdateAndList(t *testing.T) {
	env := testutil.NewEnv(t)
	_, channel := seedChannel(t, env.DB)
	item := dbtestutil.MustCreateMediaItem(t, env.DB, channel.ID, permissions.Public(), permissions.Nobody(), false)

	resp := env.Request(http.MethodPost, "/api/playlists", map[string]any{
		"channel_id": channel.ID,
		"title":      "Week 1",
		"media_ids":  []string{item.ID},
	}, env.Token("spqr1"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created playlistPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &created)
	require.Equal(t, []string{item.ID}, created.MediaIDs)

	resp = env.Request(http.MethodPatch, "/api/playlists/"+created.ID, map[string]any{
		"media_ids": []string{item.ID, item.ID},
	}, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated playlistPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &updated)
	require.Equal(t, []string{item.ID, item.ID}, updated.MediaIDs)

	resp = env.Request(http.MethodGet, "/api/playlists?channel="+channel.ID, nil, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var listed []playlistPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &listed)
	require.Len(t, listed, 1)

	resp = env.Request(http.MethodGet, "/api/playlists", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &listed)
	require.Empty(t, listed)

	resp = env.Request(http.MethodDelete, "/api/playlists/"+created.ID, nil, env.Token("abc12"))
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodDelete, "/api/playlists/"+created.ID, nil, env.Token("spqr1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
