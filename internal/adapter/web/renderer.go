// Package web renders the server-side pages of the auth screen and the
// engagement dashboard.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer is an echo.Renderer over the embedded templates. Each page is
// parsed together with the shared layout and rendered through "layout".
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer parses every embedded page
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		tmpl, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = tmpl
	}
	return r, nil
}

// Render writes the named page, e.g. "dashboard.html"
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Comparison chart geometry in SVG units
const (
	chartHeight = 200.0
	chartTop    = 10.0
	groupWidth  = 100
	barWidth    = 20
	barOffset   = 10
)

var seriesColors = map[string]string{
	"Speaking":  "#8884d8",
	"Chat":      "#82ca9d",
	"Documents": "#ffc658",
	"Tasks":     "#ff8042",
}

var funcs = template.FuncMap{
	"barHeight": func(percent float64) string {
		return fmt.Sprintf("%.1f", percent*chartHeight/100)
	},
	"barY": func(percent float64) string {
		return fmt.Sprintf("%.1f", chartTop+chartHeight-percent*chartHeight/100)
	},
	"barX": func(group, bar int) int {
		return group*groupWidth + barOffset + bar*barWidth
	},
	"labelX": func(group int) int {
		return group*groupWidth + groupWidth/2
	},
	"chartWidth": func(groups int) int {
		return max(groups, 1) * groupWidth
	},
	"seriesColor": func(series string) string {
		if c, ok := seriesColors[series]; ok {
			return c
		}
		return "#9ca3af"
	},
}
