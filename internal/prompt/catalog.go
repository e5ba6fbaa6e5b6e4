package prompt

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

//nolint:gochecknoglobals
var (
	supportedLanguages = []language.Tag{language.English, language.German}
	matcher            = language.NewMatcher(supportedLanguages)
	messages           = newCatalog()
)

// translations maps an english message to its translations.
//
//nolint:gochecknoglobals
var translations = map[string]map[language.Tag]string{
	"Login via provided link in your web browser:": {
		language.German: "Melden Sie sich über den angegebenen Link in Ihrem Webbrowser an:",
	},
	"Scan QR code above or login via provided link in your web browser:": {
		language.German: "Scannen Sie den QR-Code oben oder melden Sie sich über den angegebenen Link in Ihrem Webbrowser an:",
	},
	"Scan QR code above or open provided link in your web browser:": {
		language.German: "Scannen Sie den QR-Code oben oder öffnen Sie den angegebenen Link in Ihrem Webbrowser:",
	},
	"Open provided link in your web browser:": {
		language.German: "Öffnen Sie den angegebenen Link in Ihrem Webbrowser:",
	},
	"And enter this unique code:": {
		language.German: "Und geben Sie diesen Code ein:",
	},
	"Press \"ENTER\" after successful authentication: ": {
		language.German: "Drücken Sie \"ENTER\" nach erfolgreicher Anmeldung: ",
	},
	"Authentication failed.": {
		language.German: "Anmeldung fehlgeschlagen.",
	},
	"Authentication timed out.": {
		language.German: "Zeitüberschreitung bei der Anmeldung.",
	},
}

func newCatalog() *catalog.Builder {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))

	for key, localized := range translations {
		_ = builder.SetString(language.English, key, key)

		for tag, text := range localized {
			_ = builder.SetString(tag, key, text)
		}
	}

	return builder
}
