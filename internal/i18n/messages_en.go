package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// OAuth callback
	KeyOAuthAuthorized:   "Authorization successful! You can close this tab.",
	KeyOAuthAuthorizedAs: "Authorized as %s! You can close this tab.",
	KeyOAuthFailed:       "Authorization failed. Please try logging in again.",

	KeyContactReceived: "Handshake initiated. Message received in neural queue.",

	// Static pages
	KeyIndexMissing: "Index artifact not found.",
	KeyAboutMissing: "About page not found.",

	KeyPlaybackEmpty: "No playback history found",
}
