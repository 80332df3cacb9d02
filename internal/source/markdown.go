package source

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/fjglira/bugzero/internal/domain"
)

// MarkdownLoader reads a test case from the first GFM table in a Markdown
// document whose header has Step and Command columns. The first heading,
// when present, names the test case.
type MarkdownLoader struct {
	md goldmark.Markdown
}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *MarkdownLoader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads the test case at path.
func (l *MarkdownLoader) Load(path string) (*domain.TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewError("source", path, 0, "test case not found", domain.ErrNotFound)
		}
		return nil, domain.NewError("source", path, 0, "failed to read test case", err)
	}

	doc := l.md.Parser().Parse(text.NewReader(content))

	var name string
	var rows [][]string
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if name == "" {
				name = strings.TrimSpace(nodeText(node, content))
			}
			return ast.WalkSkipChildren, nil
		case *east.Table:
			table := tableRows(node, content)
			if len(table) > 0 {
				h := parseHeader(table[0])
				_, hasStep := h.find(colStep)
				_, hasCommand := h.find(colCommand)
				if hasStep && hasCommand {
					rows = table
					return ast.WalkStop, nil
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, domain.NewError("source", path, 0, "failed to walk markdown AST", err)
	}
	if rows == nil {
		return nil, domain.NewErrorWithSuggestion("source", path, 0,
			"no table with Step and Command columns found",
			"add a table such as | Step | Command | Locator | Value |", domain.ErrInvalidStep)
	}

	steps, err := stepsFromRows(path, rows)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = caseName(path)
	}
	return &domain.TestCase{Name: name, Source: path, Steps: steps}, nil
}

// tableRows flattens a GFM table into rows of cell text, header first.
func tableRows(table *east.Table, source []byte) [][]string {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				cells = append(cells, strings.TrimSpace(nodeText(c, source)))
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// nodeText concatenates the text of every descendant of n.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
