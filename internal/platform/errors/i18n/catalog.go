// Package i18n renders localized messages for domain error codes.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the fallback locale for every catalog lookup.
const BaseLocale = "en-US"

var supported = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supported)

var messages = map[string]map[string]string{
	"en-US": enUS,
	"pt-BR": ptBR,
}

// Catalog maps error codes to message templates for one locale.
type Catalog struct {
	locale    string
	mu        sync.Mutex
	templates map[string]*template.Template
	messages  map[string]string
}

var (
	catalogsMu sync.Mutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog best matching locale, falling back to
// BaseLocale for unknown or empty locales.
func GetCatalog(locale string) *Catalog {
	resolved := Resolve(locale)

	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if c, ok := catalogs[resolved]; ok {
		return c
	}
	c := &Catalog{
		locale:    resolved,
		templates: map[string]*template.Template{},
		messages:  messages[resolved],
	}
	catalogs[resolved] = c
	return c
}

// Resolve negotiates a supported locale for the requested BCP 47 tag.
func Resolve(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return BaseLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return BaseLocale
	}
	return supported[index].String()
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template for code with metadata. Unknown codes
// render as the code itself.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	tmpl, ok := c.template(code)
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return c.messages[code]
	}
	return buf.String()
}

func (c *Catalog) template(code string) (*template.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tmpl, ok := c.templates[code]; ok {
		return tmpl, true
	}
	text, ok := c.messages[code]
	if !ok {
		text, ok = messages[BaseLocale][code]
		if !ok {
			return nil, false
		}
	}
	tmpl, err := template.New(code).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, false
	}
	c.templates[code] = tmpl
	return tmpl, true
}
