package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	VerifyEmail   = "verify_email"
	ResetPassword = "reset_password"
)

// EmailData carries the fields the church-app emails render.
type EmailData struct {
	Name      string    `json:"Name"`
	Email     string    `json:"Email"`
	AppName   string    `json:"AppName"`
	ActionURL string    `json:"ActionURL"`
	ExpiresAt time.Time `json:"ExpiresAt"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func funcs() map[string]any {
	return map[string]any{
		"formatTime": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return t.UTC().Format("02 January 2006, 15:04 MST")
			case string:
				if parsed, err := time.Parse(time.RFC3339, t); err == nil {
					return parsed.UTC().Format("02 January 2006, 15:04 MST")
				}
				return t
			default:
				return fmt.Sprintf("%v", v)
			}
		},
	}
}

func renderFile(filename string, isHTML bool, data any) (string, error) {
	var buf bytes.Buffer
	var err error
	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmpl.FuncMap(funcs())).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(texttpl.FuncMap(funcs())).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render loads and renders subject, text, and html templates for the given
// base name. Expects <name>.subject.tmpl, <name>.text.tmpl, <name>.html.tmpl.
func Render(name string, data any) (subject, text, html string, err error) {
	subject, err = renderFile(name+".subject.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}
