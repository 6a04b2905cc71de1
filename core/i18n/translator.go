package i18n

// Translator binds a Catalog to one language for the duration of a request.
type Translator struct {
	catalog *Catalog
	lang    string
}

// NewTranslator creates a Translator for lang. An empty lang falls back to
// the catalog's default language.
func NewTranslator(catalog *Catalog, lang string) *Translator {
	if catalog == nil {
		panic("i18n: nil catalog")
	}
	if lang == "" {
		lang = catalog.DefaultLanguage()
	}
	return &Translator{catalog: catalog, lang: lang}
}

// T translates key in the bound language.
func (t *Translator) T(key string, placeholders ...M) string {
	return t.catalog.T(t.lang, key, placeholders...)
}

// Language returns the bound language.
func (t *Translator) Language() string { return t.lang }

// Func adapts the translator to the plain function shape request contexts
// carry.
func (t *Translator) Func() func(string) string {
	return func(key string) string { return t.T(key) }
}
