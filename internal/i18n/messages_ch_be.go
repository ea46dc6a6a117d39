package i18n

// berneseGermanMessages contains all Bernese Swiss German (Bärndütsch) translations
var berneseGermanMessages = map[string]string{
	// OAuth callback
	KeyOAuthAuthorized:   "Aamäudig het klappet! Du chasch dä Tab zuemache.",
	KeyOAuthAuthorizedAs: "Aagmäudet aus %s! Du chasch dä Tab zuemache.",
	KeyOAuthFailed:       "Aamäudig het nid funktioniert. Probier's bitte nomau.",

	KeyContactReceived: "Handshake gstartet. Nachricht isch ir Warteschlange.",

	// Static pages
	KeyIndexMissing: "D Startsyte isch nid gfunde worde.",
	KeyAboutMissing: "D Über-mi-Syte isch nid gfunde worde.",

	KeyPlaybackEmpty: "Kei Wiedergab-Verlauf gfunde",
}
