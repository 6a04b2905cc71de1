// Package i18n provides the translation layer for rendered pages.
//
// Translations live in per-language JSON files (en.json, de.json, ...)
// whose nested keys are flattened to dot notation at load time. The
// Catalog is immutable once built; lookups fall back from the requested
// language to the default language and finally to the key itself, so a
// missing translation never breaks a page.
//
// Per request, a Translator binds the catalog to the language negotiated
// from the Accept-Language header (or the site's configured language) and
// is handed to handlers and templates as a plain func(string) string.
package i18n
