package service

import (
	"bytes"
	"fmt"
	"text/template"
)

var welcomeTexts = map[string]string{
	"tr": "Merhaba {{.Name}}, ofisimize hoş geldiniz! Satılık ve kiralık portföyümüz hakkında sorularınızı yanıtlayabilirim. Dilerseniz sizi bir temsilcimize de bağlayabilirim.",
	"en": "Hello {{.Name}}, welcome to our office! I can answer questions about our listings for sale and rent, or connect you with one of our agents.",
}

type welcomeTemplates struct {
	byLocale      map[string]*template.Template
	defaultLocale string
}

func newWelcomeTemplates(defaultLocale string) *welcomeTemplates {
	w := &welcomeTemplates{
		byLocale:      make(map[string]*template.Template, len(welcomeTexts)),
		defaultLocale: defaultLocale,
	}
	for locale, text := range welcomeTexts {
		w.byLocale[locale] = template.Must(template.New("welcome_" + locale).Parse(text))
	}
	if _, ok := w.byLocale[w.defaultLocale]; !ok {
		w.defaultLocale = "tr"
	}
	return w
}

func (w *welcomeTemplates) render(locale, name string) (string, error) {
	tmpl, ok := w.byLocale[locale]
	if !ok {
		tmpl = w.byLocale[w.defaultLocale]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return "", fmt.Errorf("render welcome message: %w", err)
	}
	return buf.String(), nil
}
