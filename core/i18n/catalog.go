package i18n

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLang is used when no default language is configured.
const DefaultLang = "en"

// M carries placeholder values for translation templates.
type M map[string]any

// Catalog holds the loaded translations. It is immutable after construction,
// making it safe for concurrent use; a configuration reload builds a fresh
// Catalog rather than mutating the running one.
type Catalog struct {
	// Flattened "lang:key.path" -> template.
	translations map[string]string
	defaultLang  string
	languages    []string
	missingKey   func(lang, key string)
}

// Option configures the Catalog during construction.
type Option func(*Catalog) error

// New creates a Catalog from the given options.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		translations: make(map[string]string),
		defaultLang:  DefaultLang,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadOption, err)
		}
	}
	c.languages = c.collectLanguages()
	return c, nil
}

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return fmt.Errorf("default language cannot be empty")
		}
		c.defaultLang = lang
		return nil
	}
}

// WithTranslations loads a (possibly nested) translation map for one
// language. Nested maps are flattened to dot-notation keys.
func WithTranslations(lang string, translations map[string]any) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return fmt.Errorf("language cannot be empty")
		}
		for key, value := range flatten(translations, "") {
			c.translations[lang+":"+key] = value
		}
		return nil
	}
}

// WithMissingKeyHandler sets a callback invoked when a key resolves in no
// language, requested or default. Useful to log missing translations.
func WithMissingKeyHandler(handler func(lang, key string)) Option {
	return func(c *Catalog) error {
		c.missingKey = handler
		return nil
	}
}

// LoadDir returns an option that loads every <lang>.json file in dir as the
// translation map for that language. A missing directory loads nothing, so a
// site without translation files still starts.
func LoadDir(dir string) Option {
	return func(c *Catalog) error {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			lang := strings.TrimSuffix(e.Name(), ".json")
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return fmt.Errorf("read %s: %w", e.Name(), err)
			}
			var data map[string]any
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parse %s: %w", e.Name(), err)
			}
			if err := WithTranslations(lang, data)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// T resolves key in lang, falling back to the default language, and finally
// to the key itself. Placeholders of the form %{name} are replaced from the
// provided maps.
func (c *Catalog) T(lang, key string, placeholders ...M) string {
	if tpl, ok := c.translations[lang+":"+key]; ok {
		return ReplacePlaceholders(tpl, merge(placeholders))
	}
	if lang != c.defaultLang {
		if tpl, ok := c.translations[c.defaultLang+":"+key]; ok {
			return ReplacePlaceholders(tpl, merge(placeholders))
		}
	}
	if c.missingKey != nil {
		c.missingKey(lang, key)
	}
	return key
}

// Languages returns the loaded languages, default first, the rest sorted.
func (c *Catalog) Languages() []string { return c.languages }

// DefaultLanguage returns the configured fallback language.
func (c *Catalog) DefaultLanguage() string { return c.defaultLang }

func (c *Catalog) collectLanguages() []string {
	seen := map[string]bool{c.defaultLang: true}
	for key := range c.translations {
		lang, _, _ := strings.Cut(key, ":")
		seen[lang] = true
	}
	delete(seen, c.defaultLang)
	rest := make([]string, 0, len(seen))
	for lang := range seen {
		rest = append(rest, lang)
	}
	sort.Strings(rest)
	return append([]string{c.defaultLang}, rest...)
}

// ReplacePlaceholders substitutes %{name} markers in template with values
// from placeholders. Unknown markers are left as-is.
func ReplacePlaceholders(template string, placeholders M) string {
	if len(placeholders) == 0 {
		return template
	}
	result := template
	for key, value := range placeholders {
		result = strings.ReplaceAll(result, "%{"+key+"}", fmt.Sprintf("%v", value))
	}
	return result
}

func merge(placeholders []M) M {
	switch len(placeholders) {
	case 0:
		return nil
	case 1:
		return placeholders[0]
	}
	merged := make(M)
	for _, p := range placeholders {
		maps.Copy(merged, p)
	}
	return merged
}

func flatten(data map[string]any, prefix string) map[string]string {
	result := make(map[string]string)
	for key, value := range data {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			result[full] = v
		case map[string]any:
			maps.Copy(result, flatten(v, full))
		default:
			result[full] = fmt.Sprintf("%v", v)
		}
	}
	return result
}
