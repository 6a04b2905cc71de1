package admin

import (
	"bytes"
	"fmt"
	"html/template"
)

// Fragment templates the module renders into page blocks.
var fragments = template.Must(template.New("admin").Parse(`
{{define "config"}}
<form class="admin-config" method="post" action="/admin">
  <fieldset>
    <legend>{{call .T "admin.form.site"}}</legend>
    <label>{{call .T "admin.form.title"}}
      <input type="text" name="title" value="{{.Title}}">
    </label>
    <label>{{call .T "admin.form.theme"}}
      <select name="theme">
        {{range .Themes}}<option value="{{.}}" {{if eq . $.Theme}}selected{{end}}>{{.}}</option>{{end}}
      </select>
    </label>
    <label>{{call .T "admin.form.language"}}
      <input type="text" name="language" value="{{.Language}}">
    </label>
    <label>{{call .T "admin.form.loglevel"}}
      <select name="logLevel">
        {{range .LogLevels}}<option value="{{.}}" {{if eq . $.LogLevel}}selected{{end}}>{{.}}</option>{{end}}
      </select>
    </label>
  </fieldset>
  <fieldset>
    <legend>{{call .T "admin.form.modules"}}</legend>
    {{range .Modules}}
    <label>
      <input type="checkbox" name="module.{{.Name}}" {{if .Enabled}}checked{{end}} {{if .Locked}}disabled{{end}}>
      {{.Name}}
    </label>
    {{end}}
  </fieldset>
  <button type="submit">{{call .T "admin.form.save"}}</button>
</form>
{{end}}

{{define "install"}}
<form class="admin-install" method="post" action="/admin/install">
  <h1>{{call .T "admin.install.title"}}</h1>
  <p>{{call .T "admin.install.intro"}}</p>
  <label>{{call .T "admin.install.sitetitle"}}
    <input type="text" name="title" value="{{.Title}}">
  </label>
  <label>{{call .T "user.form.username"}}
    <input type="text" name="username" autocomplete="username" required>
  </label>
  <label>{{call .T "user.form.password"}}
    <input type="password" name="password" autocomplete="new-password" required>
  </label>
  <button type="submit">{{call .T "admin.install.go"}}</button>
</form>
{{end}}
`))

func renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("admin: render %s: %w", name, err)
	}
	return buf.String(), nil
}
