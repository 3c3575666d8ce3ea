// Package templates holds the project scaffolding used by `rivet create`.
// Each template is a named set of files rendered through text/template
// with the project's name and description.
package templates
