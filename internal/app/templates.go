package app

import (
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"meshgateway/internal/mesh"
)

// Template names as referenced by the dispatcher.
const (
	tmplWelcome = "welcome.gohtml"
	tmplDetail  = "productDetail.gohtml"
	tmplList    = "productList.gohtml"
)

func parseTemplates(locale language.Tag) (*template.Template, error) {
	return template.New("base").Funcs(templateFuncs(locale)).ParseFS(templateFS,
		"templates/layout.gohtml",
		"templates/"+tmplWelcome,
		"templates/"+tmplDetail,
		"templates/"+tmplList,
	)
}

func templateFuncs(locale language.Tag) template.FuncMap {
	return template.FuncMap{
		"price": func(v float64) string {
			return message.NewPrinter(locale).Sprintf("%.2f", v)
		},
		"number": func(v float64) string {
			return message.NewPrinter(locale).Sprintf("%.1f", v)
		},
		"imageURL": imageURL,
	}
}

// imageURL returns the gateway path an image reference is served from.
// Images go through the binary passthrough, so the Mesh path is reused.
func imageURL(img *mesh.ImageRef) string {
	if img == nil || img.Path == "" {
		return ""
	}
	return NormalizePath(img.Path)
}
