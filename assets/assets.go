// Package assets embeds the map UI served by cmd/server.
package assets

import _ "embed"

// IndexTemplate is the html/template source of the single page UI.
//
//go:embed index.html.tpl
var IndexTemplate string

// Style is the page stylesheet, inlined into the index page.
//
//go:embed style.css
var Style string

// Script is the page logic, inlined into the index page.
//
//go:embed script.js
var Script string

// Favicon is the SVG site icon.
//
//go:embed favicon.svg
var Favicon []byte
