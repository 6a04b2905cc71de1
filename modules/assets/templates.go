package assets

import (
	"bytes"
	"fmt"
	"html/template"
)

// Fragment templates the module renders into page blocks.
var fragments = template.Must(template.New("assets").Parse(`
{{define "manager"}}
<section class="asset-manager">
  <form method="post" action="/assets/upload" enctype="multipart/form-data">
    <label>{{call .T "assets.form.file"}}
      <input type="file" name="file" required>
    </label>
    <label>{{call .T "assets.form.folder"}}
      <input type="text" name="folder" placeholder="images">
    </label>
    <button type="submit">{{call .T "assets.form.upload"}}</button>
  </form>
  <table class="asset-list">
    <thead><tr>
      <th>{{call .T "assets.list.path"}}</th>
      <th>{{call .T "assets.list.size"}}</th>
      <th></th>
    </tr></thead>
    <tbody>
    {{range .Entries}}
      <tr>
        <td><a href="/assets/{{.Path}}">{{.Path}}</a></td>
        <td>{{.Size}}</td>
        <td>
          <form method="post" action="/assets/delete">
            <input type="hidden" name="path" value="{{.Path}}">
            <button type="submit">{{call $.T "assets.list.delete"}}</button>
          </form>
        </td>
      </tr>
    {{else}}
      <tr><td colspan="3">{{call .T "assets.list.empty"}}</td></tr>
    {{end}}
    </tbody>
  </table>
</section>
{{end}}
`))

func renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("assets: render %s: %w", name, err)
	}
	return buf.String(), nil
}
