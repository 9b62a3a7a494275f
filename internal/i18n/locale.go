// Package i18n holds the active UI language and its message catalog.
package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default is the language used until a preference is known.
const Default = "es"

var tags = map[string]language.Tag{
	"es": language.Spanish,
	"en": language.English,
}

// Parse normalizes code ("EN", "en-US", " es ") to a supported two-letter
// code. ok is false for anything else.
func Parse(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	if _, ok := tags[base.String()]; !ok {
		return "", false
	}
	return base.String(), true
}

// Locale is the active language of one application instance.
type Locale struct {
	mu       sync.RWMutex
	code     string
	printer  *message.Printer
	onChange []func(code string)
}

// NewLocale starts at initial, or Default when initial is not supported.
func NewLocale(initial string) *Locale {
	code, ok := Parse(initial)
	if !ok {
		code = Default
	}
	return &Locale{code: code, printer: message.NewPrinter(tags[code])}
}

// Code returns the active two-letter code.
func (l *Locale) Code() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.code
}

// Apply switches to code when it is supported and reports whether it did.
// Unsupported or empty codes leave the locale unchanged.
func (l *Locale) Apply(code string) bool {
	norm, ok := Parse(code)
	if !ok {
		return false
	}
	l.mu.Lock()
	changed := norm != l.code
	l.code = norm
	l.printer = message.NewPrinter(tags[norm])
	hooks := append([]func(string){}, l.onChange...)
	l.mu.Unlock()

	if changed {
		for _, fn := range hooks {
			fn(norm)
		}
	}
	return true
}

// OnChange registers fn to run after every effective language change.
func (l *Locale) OnChange(fn func(code string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Sprintf formats key in the active language.
func (l *Locale) Sprintf(key message.Reference, args ...any) string {
	l.mu.RLock()
	p := l.printer
	l.mu.RUnlock()
	return p.Sprintf(key, args...)
}

// T is Sprintf without arguments.
func (l *Locale) T(key message.Reference) string {
	return l.Sprintf(key)
}
