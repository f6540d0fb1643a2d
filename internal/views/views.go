package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var files embed.FS

// Load разбирает все шаблоны; имя шаблона совпадает с именем файла
func Load() (*template.Template, error) {
	return template.New("").ParseFS(files, "templates/*.tmpl")
}
