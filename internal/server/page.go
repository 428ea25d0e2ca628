package server

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"html/template"

	"github.com/rotisserie/eris"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/woozymasta/safelanes/assets"
)

// Title is the application name shown in the page header.
const Title = "Safelanes"

type pageData struct {
	Title     string
	PlacesKey string
	Style     template.CSS
	Script    template.JS
}

// page is a pre-rendered static response.
type page struct {
	body []byte
	etag string
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// renderIndex executes the page template with minified inline CSS and JS.
func renderIndex(m *minify.M, placesKey string) (page, error) {
	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return page{}, eris.Wrap(err, "server: minify css")
	}

	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return page{}, eris.Wrap(err, "server: minify js")
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return page{}, eris.Wrap(err, "server: parse index template")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, pageData{
		Title:     Title,
		PlacesKey: placesKey,
		Style:     template.CSS(cssMin), //nolint:gosec // embedded asset
		Script:    template.JS(jsMin),   //nolint:gosec // embedded asset
	})
	if err != nil {
		return page{}, eris.Wrap(err, "server: execute index template")
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return page{}, eris.Wrap(err, "server: minify html")
	}

	return page{body: out, etag: etag(out)}, nil
}

func renderFavicon(m *minify.M) (page, error) {
	out, err := m.Bytes("image/svg+xml", assets.Favicon)
	if err != nil {
		return page{}, eris.Wrap(err, "server: minify favicon")
	}
	return page{body: out, etag: etag(out)}, nil
}

func etag(b []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return fmt.Sprintf(`"%x-%x"`, len(b), h.Sum64())
}
