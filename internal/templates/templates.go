package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
)

// Config contains the values substituted into template files.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Description is a short project description.
	Description string

	// Port is the dev server port written into rivet.json.
	Port int
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"full":    fullTemplate(),
	"api":     apiTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %s)", name, listJoined())
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listJoined() string {
	var buf bytes.Buffer
	for i, name := range List() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(name)
	}
	return buf.String()
}

// Create renders the template into dir.
func (t *Template) Create(dir string, cfg Config) error {
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return fmt.Errorf("invalid template %s: %w", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return fmt.Errorf("rendering template %s: %w", relPath, err)
		}

		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}

		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}

	return nil
}

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A root layout and a single page",
		Files: map[string]string{
			"rivet.json": `{
  "name": "{{.ProjectName}}",
  "dev": {
    "port": {{.Port}}
  }
}
`,
			"app/layout.tsx": `export default function RootLayout({ children }: { children: any }) {
  return (
    <html lang="en">
      <body>{children}</body>
    </html>
  );
}
`,
			"app/page.tsx": `export default function HomePage() {
  return (
    <main>
      <h1>Welcome to {{.ProjectName}}</h1>
      <p>{{.Description}}</p>
    </main>
  );
}
`,
			".gitignore": `.cache/
dist/
node_modules/
`,
		},
	}
}

// fullTemplate returns the full template with example routes.
func fullTemplate() *Template {
	return &Template{
		Name:        "full",
		Description: "Complete starter with example routes, a dynamic segment, and an API handler",
		Files: map[string]string{
			"rivet.json": `{
  "name": "{{.ProjectName}}",
  "dev": {
    "port": {{.Port}}
  },
  "compiler": {
    "sourceMaps": true
  }
}
`,
			"app/layout.tsx": `import "./styles.css";

export default function RootLayout({ children }: { children: any }) {
  return (
    <html lang="en">
      <body>
        <nav>
          <a href="/">Home</a> <a href="/about">About</a> <a href="/blog/hello">Blog</a>
        </nav>
        {children}
      </body>
    </html>
  );
}
`,
			"app/page.tsx": `export default function HomePage() {
  return (
    <main>
      <h1>Welcome to {{.ProjectName}}</h1>
      <p>{{.Description}}</p>
    </main>
  );
}
`,
			"app/loading.tsx": `export default function Loading() {
  return <p>Loading...</p>;
}
`,
			"app/error.tsx": `export default function ErrorPage({ error }: { error?: Error }) {
  return (
    <main>
      <h1>Something went wrong</h1>
      <pre>{error?.message}</pre>
    </main>
  );
}
`,
			"app/about/page.tsx": `export default function AboutPage() {
  return (
    <main>
      <h1>About</h1>
      <p>{{.Description}}</p>
    </main>
  );
}
`,
			"app/blog/[slug]/page.tsx": `export default function BlogPost({ params }: { params: { slug: string[] } }) {
  return (
    <article>
      <h1>Post: {params.slug}</h1>
    </article>
  );
}
`,
			"app/api/health/route.ts": `export function GET() {
  return Response.json({ status: "ok" });
}
`,
			"app/styles.css": `body {
  font-family: system-ui, sans-serif;
  max-width: 800px;
  margin: 0 auto;
  padding: 2rem;
}
`,
			"package.json": `{
  "name": "{{.ProjectName}}",
  "private": true,
  "devDependencies": {
    "@swc/cli": "^0.7.0",
    "@swc/core": "^1.11.0"
  }
}
`,
			"README.md": "# {{.ProjectName}}\n" +
				"\n" +
				"{{.Description}}\n" +
				"\n" +
				"## Getting Started\n" +
				"\n" +
				"```bash\n" +
				"npm install\n" +
				"\n" +
				"# Start development server\n" +
				"rivet dev\n" +
				"\n" +
				"# Build for production\n" +
				"rivet build\n" +
				"```\n" +
				"\n" +
				"## Project Structure\n" +
				"\n" +
				"```\n" +
				"app/\n" +
				"├── layout.tsx            # Root layout wrapping every page\n" +
				"├── page.tsx              # /\n" +
				"├── loading.tsx           # Loading state\n" +
				"├── error.tsx             # Error boundary\n" +
				"├── about/page.tsx        # /about\n" +
				"├── blog/[slug]/page.tsx  # /blog/{slug}\n" +
				"└── api/health/route.ts   # /api/health\n" +
				"```\n" +
				"\n" +
				"Route paths mirror the directory tree: `[slug]` captures one\n" +
				"segment, `[...rest]` captures the remainder, `(group)` organizes\n" +
				"files without affecting the URL.\n",
			".gitignore": `.cache/
dist/
node_modules/
`,
		},
	}
}

// apiTemplate returns the API-only template.
func apiTemplate() *Template {
	return &Template{
		Name:        "api",
		Description: "API handlers only, no pages",
		Files: map[string]string{
			"rivet.json": `{
  "name": "{{.ProjectName}}",
  "dev": {
    "port": {{.Port}}
  }
}
`,
			"app/api/health/route.ts": `export function GET() {
  return Response.json({ status: "ok" });
}
`,
			"app/api/echo/[...path]/route.ts": `export function GET(request: Request) {
  return Response.json({ url: request.url });
}
`,
			"README.md": "# {{.ProjectName}}\n" +
				"\n" +
				"{{.Description}}\n" +
				"\n" +
				"## Endpoints\n" +
				"\n" +
				"- `GET /api/health` - health check\n" +
				"- `GET /api/echo/{...path}` - echoes the request URL\n",
			".gitignore": `.cache/
dist/
node_modules/
`,
		},
	}
}
