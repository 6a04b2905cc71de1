package content

import (
	"bytes"
	"fmt"
	"html/template"
)

// Fragment templates the module renders into page blocks. Themes own the
// page chrome; these only produce the inner markup.
var fragments = template.Must(template.New("content").Parse(`
{{define "list"}}
<div class="content-list">
{{range .Items}}
  <article class="content-teaser">
    <h2><a href="/content/show/{{.ID}}">{{.Title}}</a></h2>
    {{with .Teaser}}<p>{{.}}</p>{{end}}
  </article>
{{else}}
  <p class="content-empty">{{call $.T "content.empty"}}</p>
{{end}}
</div>
{{end}}

{{define "show"}}
<article class="content-item">
  <h1>{{.Item.Title}}</h1>
  {{.Body}}
</article>
{{end}}

{{define "form"}}
<form class="content-form" method="post" action="{{.Action}}">
  <label>{{call .T "content.form.title"}}
    <input type="text" name="title" value="{{.Item.Title}}" required>
  </label>
  <label>{{call .T "content.form.alias"}}
    <input type="text" name="alias" value="{{.Item.Alias}}">
  </label>
  <label>{{call .T "content.form.section"}}
    <input type="text" name="section" value="{{.Item.Section}}">
  </label>
  <label>{{call .T "content.form.teaser"}}
    <textarea name="teaser" rows="2">{{.Item.Teaser}}</textarea>
  </label>
  <label>{{call .T "content.form.body"}}
    <textarea name="body" rows="12">{{.Item.Body}}</textarea>
  </label>
  <label>{{call .T "content.form.status"}}
    <select name="status">
      <option value="draft" {{if eq .Item.Status "draft"}}selected{{end}}>draft</option>
      <option value="published" {{if eq .Item.Status "published"}}selected{{end}}>published</option>
    </select>
  </label>
  <button type="submit">{{call .T "content.form.save"}}</button>
</form>
{{end}}
`))

func renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("content: render %s: %w", name, err)
	}
	return buf.String(), nil
}
