package compiler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivet-web/rivet/internal/errors"
)

// fakeTool writes an executable shell script standing in for the real
// transformer.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake transformer scripts are POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-swc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

// passthroughTool copies the input file to the -o target, echoing a
// version when probed.
func passthroughTool(t *testing.T) string {
	return fakeTool(t, `
if [ "$1" = "--version" ]; then echo "@swc/cli: 9.9.9"; exit 0; fi
cat "$1" > "$3"
`)
}

func TestNew_ToolUnavailable(t *testing.T) {
	_, err := New(Config{Command: "rivet-no-such-transformer"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindToolUnavailable))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.NotEmpty(t, e.Remediation, "a missing tool must carry remediation text")
}

func TestCompile_Passthrough(t *testing.T) {
	c, err := New(Config{Command: passthroughTool(t)})
	require.NoError(t, err)

	source := []byte("export default function Page() { return null }")
	result, err := c.Compile(context.Background(), source, ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, source, result.OutputCode)
	assert.Equal(t, int64(len(source)), result.OutputSize)
	assert.Greater(t, result.Elapsed, time.Duration(0))
}

func TestCompile_ServerModeInjectsReact(t *testing.T) {
	c, err := New(Config{Command: passthroughTool(t)})
	require.NoError(t, err)

	result, err := c.Compile(context.Background(),
		[]byte("export default function Page() { return null }"), ModeServerRender)
	require.NoError(t, err)
	assert.Contains(t, string(result.OutputCode), `import React from "react";`)

	// A source that already imports React is left alone.
	withImport := []byte("import React from \"react\";\nexport default function Page() { return null }")
	result, err = c.Compile(context.Background(), withImport, ModeServerRender)
	require.NoError(t, err)
	assert.Equal(t, withImport, result.OutputCode)
}

func TestCompile_ClientModeAppendsHydrationEntry(t *testing.T) {
	c, err := New(Config{Command: passthroughTool(t)})
	require.NoError(t, err)

	result, err := c.Compile(context.Background(),
		[]byte("import React from \"react\";\nexport default function ComposedRoute() { return null }"),
		ModeClientHydration)
	require.NoError(t, err)

	out := string(result.OutputCode)
	assert.Contains(t, out, `import { hydrateRoot } from "react-dom/client";`)
	assert.Contains(t, out, `document.getElementById("root")`)
	assert.Contains(t, out, "hydrateRoot(container, React.createElement(ComposedRoute, {}))")
}

func TestCompile_TransformRejection(t *testing.T) {
	tool := fakeTool(t, `echo "error: unexpected token at input.tsx:3:7" >&2; exit 1`)
	c, err := New(Config{Command: tool})
	require.NoError(t, err)

	_, err = c.Compile(context.Background(), []byte("}{"), ModeDefault)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCompile))
	assert.Contains(t, err.Error(), "unexpected token", "stderr must surface in the error")
}

func TestCompile_Timeout(t *testing.T) {
	tool := fakeTool(t, `sleep 5`)
	c, err := New(Config{Command: tool, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Compile(context.Background(), []byte("x"), ModeClientHydration)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTimeout))
	assert.True(t, errors.IsCompileFailure(err), "timeout counts as a compile failure")
	assert.Less(t, time.Since(start), 3*time.Second, "the process must be killed, not awaited")
}

func TestVersion_ProbedOnce(t *testing.T) {
	c, err := New(Config{Command: passthroughTool(t)})
	require.NoError(t, err)

	assert.Equal(t, "9.9.9", c.Version())
	assert.Equal(t, "9.9.9", c.Version())
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"@swc/cli: 0.7.7", "0.7.7"},
		{"0.7.7\n", "0.7.7"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := parseVersion(tt.in); got != tt.want {
			t.Errorf("parseVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSwcConfig_Modes(t *testing.T) {
	for _, mode := range []Mode{ModeDefault, ModeServerRender, ModeClientHydration} {
		data, err := swcConfig(mode, true)
		require.NoError(t, err)

		var cfg map[string]any
		require.NoError(t, json.Unmarshal(data, &cfg))

		jsc := cfg["jsc"].(map[string]any)
		assert.Equal(t, "es2022", jsc["target"])
		assert.Equal(t, true, jsc["parser"].(map[string]any)["tsx"])
		assert.Equal(t, "automatic",
			jsc["transform"].(map[string]any)["react"].(map[string]any)["runtime"])
		assert.Equal(t, "es6", cfg["module"].(map[string]any)["type"])
		assert.Equal(t, mode == ModeClientHydration, cfg["minify"])
		assert.Equal(t, true, cfg["sourceMaps"])
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "default", ModeDefault.String())
	assert.Equal(t, "server", ModeServerRender.String())
	assert.Equal(t, "client", ModeClientHydration.String())
}
