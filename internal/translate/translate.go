// Package translate localizes the fixed user-facing texts of binlang.
package translate

import (
	"log/slog"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		slog.Debug("binlang: locale lookup failed", "error", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From translates an en-US message key. Keep it to constant texts: the printer
// localizes number formatting, which would break binlang's value formats.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
