// Package web embeds the UI assets so the server ships as a single
// binary with no on-disk template directory.
package web

import "embed"

// TemplatesFS holds the page templates and shared partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and any other static assets.
//
//go:embed static/*
var StaticFS embed.FS
