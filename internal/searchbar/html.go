package searchbar

import (
	"html/template"
	"io"
)

var fragment = template.Must(template.New("searchbar").Funcs(template.FuncMap{
	"price": FormatPrice,
}).Parse(`<div class="searchbar">
<input type="text" role="{{.Input.Role}}" value="{{.Query}}" placeholder="{{.Input.Label}}" aria-label="{{.Input.Label}}" aria-haspopup="{{.Input.HasPopup}}" aria-expanded="{{.Input.Expanded}}" aria-controls="{{.Input.Controls}}"{{with .Input.ActiveDescendant}} aria-activedescendant="{{.}}"{{end}}>
<div aria-live="{{.LiveRegion.Live}}" aria-atomic="{{.LiveRegion.Atomic}}" class="{{.LiveRegion.Class}}">{{.LiveRegion.Text}}</div>
{{- if .Listbox.Visible}}
<div id="{{.Listbox.ID}}" role="{{.Listbox.Role}}" aria-label="{{.Listbox.Label}}">
<h3>Stores ({{len .Stores}})</h3>
{{- range .Stores}}
<a href="{{.Entry.Path}}" id="{{.ID}}" role="{{.Role}}" aria-selected="{{.Selected}}" data-global-index="{{.Entry.FlatIndex}}"><span>{{.Entry.Title}}</span> <span>View</span><div>{{.Entry.Description}}</div></a>
{{- else}}
<div>No stores found</div>
{{- end}}
<hr>
<h3>Products &amp; Services ({{len .Products}})</h3>
{{- range .Products}}
<a href="{{.Entry.Path}}" id="{{.ID}}" role="{{.Role}}" aria-selected="{{.Selected}}" data-global-index="{{.Entry.FlatIndex}}"><span>{{.Entry.Title}}</span>{{with price .Entry}} <span>{{.}}</span>{{end}}<div>{{.Entry.Description}}</div></a>
{{- else}}
<div>No products found</div>
{{- end}}
</div>
{{- end}}
</div>
`))

type fragmentData struct {
	Attributes
	Query string
}

// RenderHTML writes s as an accessible HTML fragment.
func RenderHTML(w io.Writer, s State, placeholder string) error {
	return fragment.Execute(w, fragmentData{
		Attributes: Accessibility(s, placeholder),
		Query:      s.Query,
	})
}
