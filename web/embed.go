// Package web holds the report template and the assets inlined into it.
package web

import "embed"

// TemplatesFS embeds the HTML report template.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the chart runtime and styles.
//
//go:embed static/*
var StaticFS embed.FS
