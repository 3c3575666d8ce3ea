package compose

import (
	"regexp"
	"sort"
	"strings"
)

var (
	importModuleRe    = regexp.MustCompile(`from\s+["']([^"']+)["']`)
	importNamespaceRe = regexp.MustCompile(`import\s+\*\s+as\s+(\w+)`)
	importNamedRe     = regexp.MustCompile(`import\s+[^{]*\{\s*([^}]+)\s*\}`)
	importDefaultRe   = regexp.MustCompile(`import\s+(\w+)\s*[,f]`)
	declNameRe        = regexp.MustCompile(`(?:interface|type|function|const)\s+(\w+)`)
)

// extractImports collects every import statement, joining multi-line
// imports into one logical statement.
func extractImports(content string) []string {
	var imports []string
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "import ") {
			continue
		}
		if importComplete(line) {
			imports = append(imports, strings.TrimSuffix(line, ";"))
			continue
		}
		parts := []string{line}
		for i+1 < len(lines) {
			i++
			next := strings.TrimSpace(lines[i])
			parts = append(parts, next)
			if importComplete(next) || strings.Contains(next, "from") {
				break
			}
		}
		imports = append(imports, strings.TrimSuffix(strings.Join(parts, " "), ";"))
	}
	return imports
}

func importComplete(line string) bool {
	return strings.Contains(line, ";") ||
		strings.HasSuffix(line, `"`) ||
		strings.HasSuffix(line, "'")
}

// moduleImports accumulates the merged import surface of one module
// specifier across all composed files.
type moduleImports struct {
	defaultName string
	named       map[string]bool
	namespace   string
}

// mergeImports deduplicates the imports of all components by module
// specifier, merging default, named, and namespace forms into one
// statement per module, emitted in sorted module order.
func mergeImports(components []component) []string {
	byModule := make(map[string]*moduleImports)
	for _, comp := range components {
		for _, imp := range comp.imports {
			mod := importModuleRe.FindStringSubmatch(imp)
			if mod == nil {
				continue
			}
			mi := byModule[mod[1]]
			if mi == nil {
				mi = &moduleImports{named: make(map[string]bool)}
				byModule[mod[1]] = mi
			}
			if m := importNamespaceRe.FindStringSubmatch(imp); m != nil {
				mi.namespace = m[1]
			}
			if m := importNamedRe.FindStringSubmatch(imp); m != nil {
				for _, name := range strings.Split(m[1], ",") {
					if name = strings.TrimSpace(name); name != "" {
						mi.named[name] = true
					}
				}
			}
			if m := importDefaultRe.FindStringSubmatch(imp); m != nil {
				mi.defaultName = m[1]
			}
		}
	}

	modules := make([]string, 0, len(byModule))
	for mod := range byModule {
		modules = append(modules, mod)
	}
	sort.Strings(modules)

	result := make([]string, 0, len(modules))
	for _, mod := range modules {
		mi := byModule[mod]
		var parts []string
		if mi.defaultName != "" {
			parts = append(parts, mi.defaultName)
		}
		if len(mi.named) > 0 {
			names := make([]string, 0, len(mi.named))
			for name := range mi.named {
				names = append(names, name)
			}
			sort.Strings(names)
			parts = append(parts, "{ "+strings.Join(names, ", ")+" }")
		}
		if mi.namespace != "" {
			parts = append(parts, "* as "+mi.namespace)
		}
		if len(parts) > 0 {
			result = append(result, "import "+strings.Join(parts, ", ")+" from \""+mod+"\";")
		}
	}
	return result
}

func hasReactImport(imports []string) bool {
	for _, imp := range imports {
		if strings.Contains(imp, `from "react"`) || strings.Contains(imp, `from 'react'`) {
			return true
		}
	}
	return false
}

// extractTopLevel collects supporting declarations: interfaces, type
// aliases, and helper functions or constants that are not the main
// component itself. Imports and export-default lines are skipped since
// they are handled elsewhere.
func extractTopLevel(content string) []string {
	var blocks []string
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*"):
			continue

		case strings.HasPrefix(line, "import "):
			for i < len(lines) && !importComplete(strings.TrimSpace(lines[i])) {
				i++
			}
			continue

		case strings.HasPrefix(line, "export default"):
			// Skip the whole exported declaration, not just its first line.
			i = skipBalanced(lines, i)
			continue

		case strings.HasPrefix(line, "interface ") || strings.HasPrefix(line, "type "):
			start := i
			i = skipBalanced(lines, i)
			blocks = append(blocks, strings.Join(lines[start:i+1], "\n"))

		case isDeclarationStart(line):
			if isMainComponentLine(line) {
				i = skipBalanced(lines, i)
				continue
			}
			start := i
			i = skipBalanced(lines, i)
			blocks = append(blocks, strings.Join(lines[start:i+1], "\n"))
		}
	}
	return blocks
}

func isDeclarationStart(line string) bool {
	for _, prefix := range []string{
		"function ", "const ", "let ", "var ",
		"export function ", "export const ", "export async function ",
	} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isMainComponentLine(line string) bool {
	return exportDefaultFuncRe.MatchString(line) || constArrowRe.MatchString(line)
}

// skipBalanced advances from line i to the line closing the declaration
// that starts there, balancing braces. Single-line declarations end on
// their own line.
func skipBalanced(lines []string, i int) int {
	depth := 0
	started := false
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.Contains(line, "{") {
			started = true
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if started && depth <= 0 {
			return i
		}
		if !started && (strings.Contains(line, ";") || strings.HasSuffix(strings.TrimSpace(line), "\"") || strings.HasSuffix(strings.TrimSpace(line), "'")) {
			return i
		}
	}
	return len(lines) - 1
}

// mergeTopLevel concatenates the top-level blocks of all components,
// keeping the first occurrence of each named declaration.
func mergeTopLevel(components []component) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, comp := range components {
		for _, block := range comp.topLevel {
			if m := declNameRe.FindStringSubmatch(block); m != nil {
				if seen[m[1]] {
					continue
				}
				seen[m[1]] = true
			}
			merged = append(merged, block)
		}
	}
	return merged
}
