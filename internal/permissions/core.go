package permissions

// Registered resource kinds.
const (
	KindMediaItem      = "media_item"
	KindPlaylist       = "playlist"
	KindChannel        = "channel"
	KindBillingAccount = "billing_account"
)

func init() {
	kinds := []Kind{
		{Name: KindMediaItem, Table: "media_items"},
		{Name: KindPlaylist, Table: "playlists"},
		{Name: KindChannel, Table: "channels"},
		{Name: KindBillingAccount, Table: "billing_accounts"},
	}

	for _, kind := range kinds {
		MustRegister(kind)
	}
}
