// Package i18n renders the user-facing rotation messages in the caller's
// language. Translations are embedded as locales/active.<lang>.json.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message IDs.
const (
	KeyTodayTurn        = "TodayTurn"
	KeyTodayPaid        = "TodayPaid"
	KeyRestDay          = "RestDay"
	KeyNobody           = "Nobody"
	KeyEventSummary     = "EventSummary"
	KeyEventDescription = "EventDescription"
	KeyCalendarName     = "CalendarName"
)

// FunMessageCount is the number of Fun<N> messages every locale defines.
const FunMessageCount = 10

// FunKey returns the message ID of the i-th fun message, 0-based.
func FunKey(i int) string {
	return fmt.Sprintf("Fun%d", i%FunMessageCount+1)
}

// Translator holds the loaded bundle and the languages it can serve.
type Translator struct {
	bundle    *i18n.Bundle
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
}

// New loads every embedded locale. defaultLang is used when the caller's
// preferences match nothing; it must be one of the embedded locales.
func New(defaultLang string) (*Translator, error) {
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	// The fallback goes first so the matcher prefers it on ties.
	supported := []language.Tag{fallback}
	found := false
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug("skipping locale file", "file", name)
			continue
		}

		file, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", name, err)
		}
		if file.Tag == fallback {
			found = true
			continue
		}
		supported = append(supported, file.Tag)
	}
	if !found {
		return nil, fmt.Errorf("no locale file for default language %s", fallback)
	}

	return &Translator{
		bundle:    bundle,
		fallback:  fallback,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}, nil
}

// Languages returns the loaded languages, default first.
func (t *Translator) Languages() []language.Tag {
	return append([]language.Tag{}, t.supported...)
}

// Match picks the best supported language for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.fallback
	}
	_, index, confidence := t.matcher.Match(prefs...)
	if confidence == language.No {
		return t.fallback
	}
	return t.supported[index]
}

// Localizer returns a localizer for the given Accept-Language value.
func (t *Translator) Localizer(acceptLanguage string) *Localizer {
	tag := t.Match(acceptLanguage)
	return &Localizer{
		Tag:       tag,
		localizer: i18n.NewLocalizer(t.bundle, tag.String(), t.fallback.String()),
	}
}

// Localizer renders messages in one language.
type Localizer struct {
	Tag       language.Tag
	localizer *i18n.Localizer
}

// Message translates id with data, returning id itself when it is unknown.
func (l *Localizer) Message(id string, data map[string]interface{}) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		slog.Debug("translation missing", "key", id, "lang", l.Tag.String(), "error", err)
		return id
	}
	return msg
}

// Name returns name, or the localized "nobody" label for an empty name.
func (l *Localizer) Name(name string) string {
	if name == "" {
		return l.Message(KeyNobody, nil)
	}
	return name
}

// TodayAlert is the banner shown on the home screen.
func (l *Localizer) TodayAlert(purchaseDay bool, responsible, payer string) string {
	switch {
	case !purchaseDay:
		return l.Message(KeyRestDay, nil)
	case payer != "":
		return l.Message(KeyTodayPaid, map[string]interface{}{"Name": payer})
	default:
		return l.Message(KeyTodayTurn, map[string]interface{}{"Name": l.Name(responsible)})
	}
}

// FunMessage renders the pick-th fun message about name.
func (l *Localizer) FunMessage(pick int, name string) string {
	if pick < 0 {
		pick = -pick
	}
	return l.Message(FunKey(pick), map[string]interface{}{"Name": l.Name(name)})
}

// EventSummary is the calendar event title for name's purchase day.
func (l *Localizer) EventSummary(name string) string {
	return l.Message(KeyEventSummary, map[string]interface{}{"Name": l.Name(name)})
}

// EventDescription is the calendar event body for a purchase index.
func (l *Localizer) EventDescription(index int) string {
	return l.Message(KeyEventDescription, map[string]interface{}{"Index": index})
}

// CalendarName is the title of the ICS feed.
func (l *Localizer) CalendarName() string {
	return l.Message(KeyCalendarName, nil)
}
