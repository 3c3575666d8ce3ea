package compiler

import (
	"encoding/json"

	"github.com/rivet-web/rivet/internal/errors"
)

// swcrcFile mirrors the subset of the .swcrc schema the bundler drives.
type swcrcFile struct {
	JSC        swcrcJSC    `json:"jsc"`
	Module     swcrcModule `json:"module"`
	Minify     bool        `json:"minify"`
	IsModule   bool        `json:"isModule"`
	SourceMaps bool        `json:"sourceMaps"`
}

type swcrcJSC struct {
	Parser    swcrcParser    `json:"parser"`
	Transform swcrcTransform `json:"transform"`
	Target    string         `json:"target"`
}

type swcrcParser struct {
	Syntax        string `json:"syntax"`
	TSX           bool   `json:"tsx"`
	Decorators    bool   `json:"decorators"`
	DynamicImport bool   `json:"dynamicImport"`
}

type swcrcTransform struct {
	React swcrcReact `json:"react"`
}

type swcrcReact struct {
	Runtime     string `json:"runtime"`
	Pragma      string `json:"pragma"`
	PragmaFrag  string `json:"pragmaFrag"`
	Development bool   `json:"development"`
}

type swcrcModule struct {
	Type       string `json:"type"`
	StrictMode bool   `json:"strictMode"`
}

// swcConfig renders the transformer configuration for a mode. All modes
// share the TypeScript+TSX parser, automatic JSX runtime, es2022
// target, and es6 module output; the hydration bundle is additionally
// minified since it ships to browsers.
func swcConfig(mode Mode, sourceMaps bool) ([]byte, error) {
	cfg := swcrcFile{
		JSC: swcrcJSC{
			Parser: swcrcParser{
				Syntax:        "typescript",
				TSX:           true,
				DynamicImport: true,
			},
			Transform: swcrcTransform{
				React: swcrcReact{
					Runtime:    "automatic",
					Pragma:     "React.createElement",
					PragmaFrag: "React.Fragment",
				},
			},
			Target: "es2022",
		},
		Module: swcrcModule{
			Type:       "es6",
			StrictMode: true,
		},
		Minify:     mode == ModeClientHydration,
		IsModule:   true,
		SourceMaps: sourceMaps,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, errors.New(errors.KindCompile, "encoding compiler config: %v", err)
	}
	return data, nil
}
