package report

import (
	"html/template"
	"io"

	"Inertia/internal/repo"
)

var htmlTmpl = template.Must(template.New("table").Parse(`<html>
<head>
<meta charset="utf-8">
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; }
th { background-color: #f2f2f2; color: #333; text-align: center; }
tr:nth-child(even) { background-color: #f9f9f9; }
tr:hover { background-color: #f1f1f1; }
</style>
</head>
<body>
<h1>Table Export</h1>
<table>
<thead>
<tr>
{{- range .Headers}}
<th>{{.}}</th>
{{- end}}
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
{{- range .}}
<td>{{.}}</td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

func WriteHTML(w io.Writer, recs []repo.Record) error {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Cells(rec))
	}
	return htmlTmpl.Execute(w, struct {
		Headers []string
		Rows    [][]string
	}{Headers, rows})
}
