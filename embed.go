package nexuswebui

import "embed"

// TemplateFS contains the embedded HTML templates used for rendering the console. These templates
// are organized in a directory structure that separates layouts, pages, and partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets such as JavaScript and CSS required for the
// console's functionality.
//
//go:embed static/*
var StaticFS embed.FS
