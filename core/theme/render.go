package theme

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cliftonc/calipso/core/dispatch"
)

// SectionData is the single options object a section template receives:
// the concatenated block markup (or menu entries for menu sections) plus
// the shared per-request helpers.
type SectionData struct {
	Content template.HTML
	Menu    []dispatch.MenuEntry
	User    *dispatch.User
	Flash   []dispatch.Flash
	Title   string
	Now     time.Time

	translate func(string) string
}

// T translates a key with the per-request translator; templates call it as
// {{.T "Some key"}}.
func (d SectionData) T(key string) string {
	if d.translate == nil {
		return key
	}
	return d.translate(key)
}

// PageData is what the outer layout template receives: every rendered
// section by name plus the same shared helpers.
type PageData struct {
	Sections map[string]template.HTML
	User     *dispatch.User
	Flash    []dispatch.Flash
	Title    string
	Now      time.Time

	translate func(string) string
}

// T translates a key with the per-request translator.
func (d PageData) T(key string) string {
	if d.translate == nil {
		return key
	}
	return d.translate(key)
}

// RenderPage composes the full document for one request: it resolves the
// layout, renders each declared section from the accumulated blocks or
// menus, wraps them in the outer layout template, and writes the result
// with the given status. Everything is buffered; nothing reaches w until
// the whole page rendered successfully.
func (t *Theme) RenderPage(w http.ResponseWriter, rc *dispatch.RequestContext, layoutName, title string, status int, log *slog.Logger) error {
	name, layout := t.Resolve(layoutName, log)

	flashes := rc.Flashes()
	now := time.Now()

	sections := make(map[string]template.HTML, len(layout.Sections))
	for _, sectionName := range sortedKeys(layout.Sections) {
		spec := layout.Sections[sectionName]

		tmpl := t.Section(name, sectionName)
		if tmpl == nil {
			// Absent from the cache; logged at load time. The section
			// renders empty so the rest of the page still does.
			sections[sectionName] = ""
			continue
		}

		data := SectionData{
			User:      rc.User(),
			Flash:     flashes,
			Title:     title,
			Now:       now,
			translate: rc.T,
		}
		if spec.Menu != "" {
			data.Menu = rc.Menus().Get(spec.Menu)
		} else {
			var b strings.Builder
			for _, blockName := range spec.Blocks {
				for _, fragment := range rc.Blocks().Get(blockName) {
					b.WriteString(fragment)
				}
			}
			data.Content = template.HTML(b.String())
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("%w: %s.%s: %w", ErrRenderFailed, name, sectionName, err)
		}
		sections[sectionName] = template.HTML(buf.String())
	}

	outer := t.layouts[name]
	var page bytes.Buffer
	err := outer.Execute(&page, PageData{
		Sections:  sections,
		User:      rc.User(),
		Flash:     flashes,
		Title:     title,
		Now:       now,
		translate: rc.T,
	})
	if err != nil {
		return fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(page.Bytes())
	return err
}
