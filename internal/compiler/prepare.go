package compiler

import (
	"bytes"

	"github.com/rivet-web/rivet/internal/compose"
)

var reactImportMarkers = [][]byte{
	[]byte(`from "react"`),
	[]byte(`from 'react'`),
	[]byte(`require("react")`),
	[]byte(`require('react')`),
}

// prepareSource adjusts the composed module for the compilation target
// before it reaches the transformer. Server bundles get a React import
// when the source carries none; hydration bundles get a react-dom
// entry point that mounts the composed root component.
func prepareSource(source []byte, mode Mode) []byte {
	switch mode {
	case ModeServerRender:
		if hasReactImport(source) {
			return source
		}
		var b bytes.Buffer
		b.Grow(len(source) + 32)
		b.WriteString("import React from \"react\";\n")
		b.Write(source)
		return b.Bytes()

	case ModeClientHydration:
		var b bytes.Buffer
		b.Grow(len(source) + 256)
		b.WriteString("import { hydrateRoot } from \"react-dom/client\";\n")
		b.Write(source)
		b.WriteString("\n// Hydration entry point\n")
		b.WriteString("const container = document.getElementById(\"root\");\n")
		b.WriteString("if (container) {\n")
		b.WriteString("  hydrateRoot(container, React.createElement(" + compose.RootComponentName + ", {}));\n")
		b.WriteString("} else {\n")
		b.WriteString("  console.error(\"Root element not found for hydration\");\n")
		b.WriteString("}\n")
		return b.Bytes()

	default:
		return source
	}
}

func hasReactImport(source []byte) bool {
	for _, marker := range reactImportMarkers {
		if bytes.Contains(source, marker) {
			return true
		}
	}
	return false
}
