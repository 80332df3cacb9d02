package render

import (
	"embed"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	texttemplate "text/template"

	"github.com/fjglira/bugzero/internal/domain"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

const (
	htmlTemplateName     = "report.html.tmpl"
	markdownTemplateName = "report.md.tmpl"
)

// templateData is the struct passed to templates.
type templateData struct {
	Title  string
	Report *domain.Report
}

// Engine renders reports through the HTML and Markdown templates.
type Engine struct {
	html     *htmltemplate.Template
	markdown *texttemplate.Template
	title    string
}

// NewEngine loads the report templates. A file with the same name in
// templatesDir replaces the built-in one.
func NewEngine(templatesDir, title string) (*Engine, error) {
	e := &Engine{title: title}

	content, path, err := readTemplate(templatesDir, htmlTemplateName)
	if err != nil {
		return nil, err
	}
	e.html, err = htmltemplate.New(htmlTemplateName).Funcs(htmltemplate.FuncMap(funcMap())).Parse(content)
	if err != nil {
		return nil, domain.NewError("render", path, 0, "failed to parse template", err)
	}

	content, path, err = readTemplate(templatesDir, markdownTemplateName)
	if err != nil {
		return nil, err
	}
	e.markdown, err = texttemplate.New(markdownTemplateName).Funcs(texttemplate.FuncMap(funcMap())).Parse(content)
	if err != nil {
		return nil, domain.NewError("render", path, 0, "failed to parse template", err)
	}

	return e, nil
}

// readTemplate returns the template text and where it came from.
func readTemplate(dir, name string) (string, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !os.IsNotExist(err) {
			return "", path, domain.NewError("render", path, 0, "failed to read template file", err)
		}
	}
	data, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return "", name, domain.NewError("render", name, 0, "built-in template missing", err)
	}
	return string(data), "builtin:" + name, nil
}

func (e *Engine) data(rep *domain.Report) templateData {
	title := e.title
	if title == "" {
		title = "Test Execution Report"
	}
	return templateData{Title: title, Report: rep}
}

// RenderHTML writes the HTML report.
func (e *Engine) RenderHTML(w io.Writer, rep *domain.Report) error {
	if err := e.html.Execute(w, e.data(rep)); err != nil {
		return domain.NewError("render", rep.Source, 0, "failed to execute HTML template", err)
	}
	return nil
}

// RenderMarkdown writes the Markdown report.
func (e *Engine) RenderMarkdown(w io.Writer, rep *domain.Report) error {
	if err := e.markdown.Execute(w, e.data(rep)); err != nil {
		return domain.NewError("render", rep.Source, 0, "failed to execute Markdown template", err)
	}
	return nil
}
