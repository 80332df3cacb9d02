package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjglira/bugzero/internal/domain"
)

// funcMap returns the functions available in report templates.
func funcMap() map[string]any {
	return map[string]any{
		"add": func(a, b int) int {
			return a + b
		},
		"toLower":   strings.ToLower,
		"toUpper":   strings.ToUpper,
		"trimSpace": strings.TrimSpace,
		"contains":  strings.Contains,
		"join":      strings.Join,
		"statusClass": func(s domain.Status) string {
			return strings.ToLower(string(s))
		},
		"seconds": func(d time.Duration) string {
			return fmt.Sprintf("%.2f", d.Seconds())
		},
		"timestamp": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		// cell makes a value safe inside a Markdown table cell.
		"cell": func(s string) string {
			s = strings.ReplaceAll(s, "|", `\|`)
			return strings.ReplaceAll(s, "\n", " ")
		},
	}
}
