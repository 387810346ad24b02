package viewer

import (
	"fmt"
	"html/template"
)

// pages is parsed at init time to fail fast on template errors.
var pages *template.Template

func init() {
	pages = template.Must(template.New("pages").Funcs(template.FuncMap{
		"score": func(f float64) string { return fmt.Sprintf("%.4f", f) },
		"add":   func(a, b int) int { return a + b },
		"half":  func(a int) int { return a / 2 },
	}).Parse(pageTemplate))
}

// pageData is shared by the index and missing pages.
type pageData struct {
	Title     string
	Companies []string
	Counts    []int
	Company   string
	Query     string
	TopN      int
	Heading   string
	Selected  *matchView
	Results   []matchView
	Error     string
	Chart     *barChart
	Report    *reportView
}

type matchView struct {
	Name              string
	Score             float64
	Description       string
	TopLevelCategory  string
	SecondaryCategory string
	EmployeeCount     string
}

type reportView struct {
	Source  string
	Rows    int
	Columns []columnView
}

type columnView struct {
	Name    string
	Missing int
}

const pageTemplate = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #fff; color: #262730; }
  .layout { display: flex; min-height: 100vh; }
  .sidebar { width: 280px; flex-shrink: 0; background-color: #F0F2F6; padding: 20px; box-sizing: border-box; }
  .sidebar h2 { font-size: 1.1rem; margin-top: 0; }
  .main { flex: 1; max-width: 85%; padding: 1rem 3rem; box-sizing: border-box; }
  .header-container { background-color: #4A90E2; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
  .main-title { font-size: 2.5rem; font-weight: bold; color: #FFFFFF; margin: 0; }
  .subheader { font-size: 1.1rem; color: #F0F2F6; margin-top: 5px; }
  label { display: block; font-weight: 600; margin: 12px 0 6px; }
  select, input[type=text] { width: 100%; padding: 8px; border: 1px solid #d0d0d0; border-radius: 6px; box-sizing: border-box; font-size: 1rem; }
  .button { display: inline-block; background-color: #4CAF50; color: white; font-size: 1rem; border: none; border-radius: 10px; padding: 0.5rem 1rem; margin-top: 12px; cursor: pointer; text-decoration: none; }
  .company-card { background-color: #F9F9F9; padding: 15px; border-radius: 8px; margin-bottom: 10px; border: 1px solid #e0e0e0; }
  .company-card h4 { font-size: 1.2rem; color: #4A90E2; margin: 0; }
  .company-card p { font-size: 1rem; color: #6E6E6E; }
  .error { background: #fdecea; color: #611a15; border: 1px solid #f5c6cb; border-radius: 8px; padding: 12px 16px; margin: 12px 0; }
  table.counts { border-collapse: collapse; margin-top: 16px; }
  table.counts th, table.counts td { border: 1px solid #e0e0e0; padding: 6px 12px; text-align: left; }
  table.counts td.num { text-align: right; }
  .footer { text-align: center; padding-top: 20px; font-size: 0.9rem; color: #888; }
  .footer hr { margin-top: 2rem; margin-bottom: 1rem; border: none; border-top: 1px solid #ddd; }
</style>
</head>
<body>
<div class="layout">
<aside class="sidebar">
  <h2>Settings &amp; Visualizations</h2>
  <form method="get" action="/missing">
    <button class="button" type="submit">Show Missing Data Visualization</button>
  </form>
</aside>
<main class="main">
<div class="header-container">
  <h1 class="main-title">Company Similarity Viewer</h1>
  <p class="subheader">Discover and compare companies based on their descriptions. This tool uses TF-IDF and cosine similarity to find the most similar companies.</p>
</div>
{{end}}

{{define "foot"}}
<div class="footer">
  <hr>
  <p>Company Similarity Viewer</p>
</div>
</main>
</div>
</body>
</html>
{{end}}

{{define "index"}}{{template "head" .}}
<form method="get" action="/">
  <label for="company">Select a Company:</label>
  <select id="company" name="company">
    {{- range .Companies}}
    <option value="{{.}}"{{if eq . $.Company}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <label for="n">Number of similar companies to display:</label>
  <select id="n" name="n">
    {{- range .Counts}}
    <option value="{{.}}"{{if eq . $.TopN}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <button class="button" type="submit">Show Similar Companies</button>
</form>

<form method="get" action="/">
  <label for="q">Or describe a company:</label>
  <input type="text" id="q" name="q" value="{{.Query}}" placeholder="e.g. cloud data security">
  <input type="hidden" name="n" value="{{.TopN}}">
  <button class="button" type="submit">Find Matching Companies</button>
</form>

{{if .Error}}<div class="error">{{.Error}}</div>{{end}}

{{if .Heading}}
<h2>{{.Heading}}</h2>
{{with .Selected}}<p class="selected">{{.TopLevelCategory}} / {{.SecondaryCategory}} &middot; Employee Count: {{.EmployeeCount}}</p>{{end}}
{{range .Results}}
<div class="company-card">
  <h4>{{.Name}} - Similarity Score: {{score .Score}}</h4>
  <p><strong>Description:</strong> {{.Description}}</p>
  <p><strong>Top Level Category:</strong> {{.TopLevelCategory}}</p>
  <p><strong>Secondary Category:</strong> {{.SecondaryCategory}}</p>
  <p><strong>Employee Count:</strong> {{.EmployeeCount}}</p>
</div>
{{end}}
{{end}}
{{template "foot" .}}{{end}}

{{define "missing"}}{{template "head" .}}
<p><a href="/">&larr; Back to similar companies</a></p>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{with .Chart}}
{{if .Bars}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="{{.Title}}">
  <text x="{{.PlotX}}" y="24" font-size="16" font-weight="bold">{{.Title}}</text>
  {{- range .Ticks}}
  <line x1="{{$.Chart.PlotX}}" x2="{{add $.Chart.PlotX $.Chart.PlotW}}" y1="{{.Y}}" y2="{{.Y}}" stroke="#e6e6e6"></line>
  <text x="{{add $.Chart.PlotX -6}}" y="{{.Y}}" font-size="11" text-anchor="end" dominant-baseline="middle">{{.Value}}</text>
  {{- end}}
  {{- range .Bars}}
  <rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="{{.Color}}"><title>{{.Label}}: {{.Count}}</title></rect>
  <text x="{{.LabelX}}" y="{{.LabelY}}" font-size="12" text-anchor="end" transform="rotate(-45 {{.LabelX}} {{.LabelY}})">{{.Label}}</text>
  {{- end}}
  <text x="{{add .PlotX (half .PlotW)}}" y="{{.XLabelY}}" font-size="14" text-anchor="middle">Columns</text>
  <text x="16" y="{{add .PlotY (half .PlotH)}}" font-size="14" text-anchor="middle" transform="rotate(-90 16 {{add .PlotY (half .PlotH)}})">Number of Missing Values</text>
</svg>
{{else}}
<p>No missing values found.</p>
{{end}}
{{end}}
{{with .Report}}
<table class="counts">
  <thead><tr><th>Column</th><th>Missing</th></tr></thead>
  <tbody>
  {{- range .Columns}}
  <tr><td>{{.Name}}</td><td class="num">{{.Missing}}</td></tr>
  {{- end}}
  </tbody>
</table>
<p>{{.Rows}} rows read from {{.Source}}.</p>
{{end}}
{{template "foot" .}}{{end}}
`
