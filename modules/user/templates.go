package user

import (
	"bytes"
	"fmt"
	"html/template"
)

// Fragment templates the module renders into page blocks.
var fragments = template.Must(template.New("user").Parse(`
{{define "loginform"}}
<form class="user-login" method="post" action="/user/login">
  <label>{{call .T "user.form.username"}}
    <input type="text" name="username" autocomplete="username" required>
  </label>
  <label>{{call .T "user.form.password"}}
    <input type="password" name="password" autocomplete="current-password" required>
  </label>
  <button type="submit">{{call .T "user.form.login"}}</button>
  <a class="user-register-link" href="/user/register">{{call .T "user.form.register"}}</a>
</form>
{{end}}

{{define "registerform"}}
<form class="user-register" method="post" action="/user/register">
  <label>{{call .T "user.form.username"}}
    <input type="text" name="username" autocomplete="username" required>
  </label>
  <label>{{call .T "user.form.email"}}
    <input type="email" name="email" autocomplete="email">
  </label>
  <label>{{call .T "user.form.password"}}
    <input type="password" name="password" autocomplete="new-password" required>
  </label>
  <button type="submit">{{call .T "user.form.register"}}</button>
</form>
{{end}}

{{define "profile"}}
<section class="user-profile">
  <h1>{{.Account.Username}}</h1>
  {{with .Account.About}}<p>{{.}}</p>{{end}}
  <dl>
    <dt>{{call .T "user.profile.joined"}}</dt>
    <dd>{{.Account.CreatedAt.Format "2 January 2006"}}</dd>
  </dl>
</section>
{{end}}

{{define "loginbox"}}
<div class="user-box">
{{if .User}}
  <a href="/user/profile/{{.User.Username}}">{{.User.Username}}</a>
  <a href="/user/logout">{{call .T "user.box.logout"}}</a>
{{else}}
  <a href="/user/login">{{call .T "user.box.login"}}</a>
{{end}}
</div>
{{end}}
`))

func renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("user: render %s: %w", name, err)
	}
	return buf.String(), nil
}
