package compose

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rivet-web/rivet/internal/errors"
)

// RootComponentName is the default export of every composed module. The
// compiler's hydration entry point mounts this component.
const RootComponentName = "ComposedRoute"

// component holds the parsed pieces of one source module.
type component struct {
	imports  []string
	topLevel []string
	funcName string
	funcBody string
}

// Compose reads the layout files (outermost to innermost) and the page
// file, then merges them into one module. File read failures surface as
// filesystem errors carrying the offending path.
func Compose(layoutFiles []string, pageFile string) (string, error) {
	layouts := make([]string, 0, len(layoutFiles))
	for _, f := range layoutFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", errors.New(errors.KindFileSystem, "reading layout: %v", err).WithPath(f)
		}
		layouts = append(layouts, string(data))
	}
	data, err := os.ReadFile(pageFile)
	if err != nil {
		return "", errors.New(errors.KindFileSystem, "reading page: %v", err).WithPath(pageFile)
	}
	return ComposeClean(layouts, string(data)), nil
}

// ComposeClean merges already-loaded layout contents (outermost to
// innermost) and the page content into a single module. It performs no
// I/O and is deterministic.
func ComposeClean(layoutContents []string, pageContent string) string {
	components := make([]component, 0, len(layoutContents)+1)
	for i, content := range layoutContents {
		components = append(components, parseComponent(content, fmt.Sprintf("Layout%d", i)))
	}
	components = append(components, parseComponent(pageContent, "Page"))

	var b strings.Builder

	imports := mergeImports(components)
	if !hasReactImport(imports) {
		b.WriteString("import React from \"react\";\n")
	}
	for _, imp := range imports {
		b.WriteString(imp)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	for _, block := range mergeTopLevel(components) {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	names := make([]string, len(components))
	for i, comp := range components {
		if i < len(components)-1 {
			names[i] = fmt.Sprintf("Layout%dComponent", i)
		} else {
			names[i] = "PageComponent"
		}
		b.WriteString(renameComponent(comp.funcBody, comp.funcName, names[i]))
		b.WriteString("\n\n")
	}

	b.WriteString("// Composed route component\n")
	b.WriteString("export default function " + RootComponentName + "(props: any = {}) {\n")
	b.WriteString("  return " + nestedElement(names) + ";\n")
	b.WriteString("}\n")

	return b.String()
}

var (
	exportDefaultFuncRe = regexp.MustCompile(`export\s+default\s+function\s+(\w+)\s*\([^)]*\)\s*\{`)
	funcDeclRe          = regexp.MustCompile(`function\s+(\w+)\s*\([^)]*\)\s*\{`)
	constArrowRe        = regexp.MustCompile(`const\s+(\w+)\s*=\s*\([^)]*\)\s*=>\s*\{`)
	exportDefaultRe     = regexp.MustCompile(`export\s+default\s+`)
)

// parseComponent splits a module into imports, top-level declarations,
// and its main component function. When no component can be located a
// null-rendering stub named fallback is substituted so one unparsable
// file cannot poison the whole composition.
func parseComponent(content, fallback string) component {
	name, body := extractMainComponent(content, fallback)
	return component{
		imports:  extractImports(content),
		topLevel: extractTopLevel(content),
		funcName: name,
		funcBody: body,
	}
}

// extractMainComponent finds the default-exported component. It tries,
// in order: `export default function Name`, a function declaration later
// exported with `export default Name`, and a const arrow component
// exported the same way.
func extractMainComponent(content, fallback string) (string, string) {
	if m := exportDefaultFuncRe.FindStringSubmatchIndex(content); m != nil {
		name := content[m[2]:m[3]]
		return name, extractBody(content, m[0])
	}

	for _, m := range funcDeclRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		if strings.Contains(content, "export default "+name) {
			return name, extractBody(content, m[0])
		}
	}

	if m := constArrowRe.FindStringSubmatchIndex(content); m != nil {
		name := content[m[2]:m[3]]
		if strings.Contains(content, "export default "+name) {
			return name, extractBody(content, m[0])
		}
	}

	return fallback, "function " + fallback + "() { return null; }"
}

// extractBody returns the complete declaration starting at start by
// balancing braces line by line.
func extractBody(content string, start int) string {
	var out []string
	depth := 0
	started := false
	for _, line := range strings.Split(content[start:], "\n") {
		out = append(out, line)
		if strings.Contains(line, "{") {
			started = true
		}
		if started {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth == 0 {
				break
			}
		}
	}
	return strings.Join(out, "\n")
}

// renameComponent strips the export-default marker and renames the
// component so the merged module has no colliding identifiers.
func renameComponent(body, oldName, newName string) string {
	cleaned := exportDefaultRe.ReplaceAllString(body, "")
	if oldName == newName {
		return cleaned
	}
	cleaned = regexp.MustCompile(`\bfunction\s+`+regexp.QuoteMeta(oldName)+`\b`).
		ReplaceAllString(cleaned, "function "+newName)
	cleaned = regexp.MustCompile(`\bconst\s+`+regexp.QuoteMeta(oldName)+`\s*=`).
		ReplaceAllString(cleaned, "const "+newName+" =")
	return cleaned
}

// nestedElement builds the createElement chain, innermost (page) first,
// each layout wrapping the accumulated subtree as its children.
func nestedElement(names []string) string {
	if len(names) == 0 {
		return "null"
	}
	expr := "React.createElement(" + names[len(names)-1] + ", props)"
	for i := len(names) - 2; i >= 0; i-- {
		expr = "React.createElement(" + names[i] + ", { ...props, children: " + expr + " })"
	}
	return expr
}
