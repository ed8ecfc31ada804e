package bluesky

const (
	DefaultHost = "https://bsky.social"

	PostCollection = "app.bsky.feed.post"
	ExternalEmbed  = "app.bsky.embed.external"

	// error name returned by the PDS once the access JWT has expired
	expiredTokenError = "ExpiredToken"
)
