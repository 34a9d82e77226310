// Package web holds the chat page template compiled into the binary.
package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFiles embed.FS

const indexTemplate = "index.html"

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New(indexTemplate).Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderIndex writes the chat page for data.
func (r *Renderer) RenderIndex(w io.Writer, data interface{}) error {
	return r.tmpl.ExecuteTemplate(w, indexTemplate, data)
}
