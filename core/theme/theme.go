package theme

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cliftonc/calipso/core/logger"
)

// DefaultLayout is the layout every theme must declare; it is the fallback
// for undeclared layout names and its absence is fatal for the theme.
const DefaultLayout = "default"

// SectionSpec binds one layout section to a template and its content
// source: either a list of block names concatenated into the template's
// Content, or a menu region rendered as navigation.
type SectionSpec struct {
	Template string   `json:"template"`
	Blocks   []string `json:"blocks,omitempty"`
	Menu     string   `json:"menu,omitempty"`
}

// LayoutSpec declares one page skeleton: the outer template plus its
// sections.
type LayoutSpec struct {
	Template string                 `json:"template"`
	Sections map[string]SectionSpec `json:"sections"`
}

// Spec is the declarative theme description read from theme.json.
type Spec struct {
	Name    string                `json:"name"`
	Layouts map[string]LayoutSpec `json:"layouts"`
}

// Theme is one fully loaded theme: the parsed spec plus the template cache.
// All templates are compiled eagerly at load time; the cache is immutable
// afterward and discarded wholesale on reload, never partially invalidated.
type Theme struct {
	name string
	dir  string
	spec Spec

	// layouts holds the outer layout templates by layout name; sections
	// holds the section templates keyed "<layout>.<section>".
	layouts  map[string]*template.Template
	sections map[string]*template.Template
}

// Load reads theme.json from dir and pre-compiles every referenced
// template. A missing or unparseable section template is non-fatal: it is
// logged and simply absent from the cache, caught later by the
// default-section fallback. A missing default layout template is fatal.
func Load(dir string, log *slog.Logger) (*Theme, error) {
	if log == nil {
		log = logger.Discard()
	}

	raw, err := os.ReadFile(filepath.Join(dir, "theme.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrThemeUnreadable, dir, err)
	}

	var spec Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrThemeInvalid, dir, err)
	}
	if _, ok := spec.Layouts[DefaultLayout]; !ok {
		return nil, fmt.Errorf("%w: theme %s declares no %q layout", ErrDefaultLayoutMissing, spec.Name, DefaultLayout)
	}

	t := &Theme{
		name:     spec.Name,
		dir:      dir,
		spec:     spec,
		layouts:  make(map[string]*template.Template),
		sections: make(map[string]*template.Template),
	}

	for _, layoutName := range sortedKeys(spec.Layouts) {
		layout := spec.Layouts[layoutName]

		outer, err := t.compile(layout.Template)
		if err != nil {
			if layoutName == DefaultLayout {
				return nil, fmt.Errorf("%w: %w", ErrDefaultLayoutMissing, err)
			}
			log.Error("layout template unavailable, layout disabled",
				logger.Theme(spec.Name),
				logger.Layout(layoutName),
				logger.Error(err),
			)
			continue
		}
		t.layouts[layoutName] = outer

		for _, sectionName := range sortedKeys(layout.Sections) {
			section := layout.Sections[sectionName]
			compiled, err := t.compile(section.Template)
			if err != nil {
				// Non-fatal: the default-section fallback covers the gap
				// and the page still renders.
				log.Warn("section template unavailable",
					logger.Theme(spec.Name),
					logger.Layout(layoutName),
					logger.Section(sectionName),
					logger.Error(err),
				)
				continue
			}
			t.sections[layoutName+"."+sectionName] = compiled
		}
	}

	return t, nil
}

func (t *Theme) compile(file string) (*template.Template, error) {
	if file == "" {
		return nil, fmt.Errorf("%w: empty template reference", ErrTemplateMissing)
	}
	src, err := os.ReadFile(filepath.Join(t.dir, file))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateMissing, file, err)
	}
	compiled, err := template.New(file).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateInvalid, file, err)
	}
	return compiled, nil
}

// Name returns the theme's declared name.
func (t *Theme) Name() string { return t.name }

// Dir returns the theme's directory.
func (t *Theme) Dir() string { return t.dir }

// Resolve maps a requested layout name to an available layout, falling back
// to the default layout when the name is undeclared or its template failed
// to load. The returned name is the effective layout.
func (t *Theme) Resolve(name string, log *slog.Logger) (string, LayoutSpec) {
	if name == "" {
		name = DefaultLayout
	}
	if _, ok := t.layouts[name]; !ok {
		if log != nil {
			log.Info("layout not defined by theme, falling back to default",
				logger.Theme(t.name),
				logger.Layout(name),
			)
		}
		name = DefaultLayout
	}
	return name, t.spec.Layouts[name]
}

// Section returns the compiled template for "<layout>.<section>", falling
// back to "default.<section>". A nil return means the section renders
// empty; the gap was already logged at load time.
func (t *Theme) Section(layout, section string) *template.Template {
	if tmpl, ok := t.sections[layout+"."+section]; ok {
		return tmpl
	}
	return t.sections[DefaultLayout+"."+section]
}

// Layouts returns the declared layout names in lexical order.
func (t *Theme) Layouts() []string {
	return sortedKeys(t.spec.Layouts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
