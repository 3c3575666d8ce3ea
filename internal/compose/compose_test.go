package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rootLayout = `import React from "react";
import { Nav } from "./nav";

interface LayoutProps {
  children: React.ReactNode;
}

export default function RootLayout({ children }: LayoutProps) {
  return <html><body><Nav />{children}</body></html>;
}
`

const sectionLayout = `import React from "react";

export default function BlogLayout({ children }: { children: React.ReactNode }) {
  return <section className="blog">{children}</section>;
}
`

const pageSource = `import React from "react";
import { formatDate } from "./dates";

const title = "Latest posts";

export default function BlogIndex() {
  return <main><h1>{title}</h1><p>{formatDate(new Date())}</p></main>;
}
`

func TestComposeClean_NestsLayoutsAroundPage(t *testing.T) {
	out := ComposeClean([]string{rootLayout, sectionLayout}, pageSource)

	assert.Contains(t, out, "function Layout0Component(")
	assert.Contains(t, out, "function Layout1Component(")
	assert.Contains(t, out, "function PageComponent(")
	assert.Contains(t, out, "export default function ComposedRoute(")

	// Outermost layout wraps the next, which wraps the page.
	i0 := strings.Index(out, "React.createElement(Layout0Component")
	i1 := strings.Index(out, "React.createElement(Layout1Component")
	ip := strings.Index(out, "React.createElement(PageComponent")
	require.True(t, i0 >= 0 && i1 >= 0 && ip >= 0)
	assert.Less(t, i0, i1)
	assert.Less(t, i1, ip)

	// Original export-default markers must not survive on the renamed
	// component functions.
	assert.NotContains(t, out, "export default function RootLayout")
	assert.NotContains(t, out, "export default function BlogIndex")
}

func TestComposeClean_Deterministic(t *testing.T) {
	a := ComposeClean([]string{rootLayout, sectionLayout}, pageSource)
	b := ComposeClean([]string{rootLayout, sectionLayout}, pageSource)
	assert.Equal(t, a, b)
}

func TestComposeClean_MergesImports(t *testing.T) {
	out := ComposeClean([]string{rootLayout}, pageSource)

	// Both files import React; the merged module gets exactly one
	// react import statement.
	assert.Equal(t, 1, strings.Count(out, `from "react"`))
	assert.Contains(t, out, `from "./nav"`)
	assert.Contains(t, out, `from "./dates"`)
}

func TestComposeClean_InjectsReactWhenAbsent(t *testing.T) {
	page := `export default function Plain() { return <div />; }`
	out := ComposeClean(nil, page)
	assert.Contains(t, out, `import React from "react";`)
}

func TestComposeClean_NoLayouts(t *testing.T) {
	out := ComposeClean(nil, pageSource)
	assert.Contains(t, out, "return React.createElement(PageComponent, props);")
}

func TestComposeClean_KeepsTopLevelDeclarations(t *testing.T) {
	out := ComposeClean([]string{rootLayout}, pageSource)
	assert.Contains(t, out, "interface LayoutProps")
	assert.Contains(t, out, `const title = "Latest posts";`)
}

func TestComposeClean_UnparsableFallsBackToStub(t *testing.T) {
	out := ComposeClean([]string{"not a component at all"}, pageSource)
	assert.Contains(t, out, "function Layout0Component() { return null; }")
}

func TestCompose_ReadsFiles(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.tsx")
	page := filepath.Join(dir, "page.tsx")
	require.NoError(t, os.WriteFile(layout, []byte(rootLayout), 0644))
	require.NoError(t, os.WriteFile(page, []byte(pageSource), 0644))

	out, err := Compose([]string{layout}, page)
	require.NoError(t, err)
	assert.Contains(t, out, "ComposedRoute")
}

func TestCompose_MissingFile(t *testing.T) {
	_, err := Compose(nil, filepath.Join(t.TempDir(), "missing.tsx"))
	require.Error(t, err)
}
