package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rivet-web/rivet/internal/config"
	"github.com/rivet-web/rivet/internal/templates"
)

func createCmd() *cobra.Command {
	var (
		templateName string
		description  string
		port         int
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new Rivet project",
		Long: `Create a new Rivet project with the specified name.

Templates:
  minimal   A root layout and a single page
  full      Complete starter with example routes (default)
  api       API handlers only, no pages

Examples:
  rivet create my-site
  rivet create my-site --template=minimal
  rivet create my-api --template=api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], templateName, description, port)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "full", "Project template (minimal, full, api)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Dev server port written into rivet.json")

	return cmd
}

func runCreate(name, templateName, description string, port int) error {
	printBanner()
	fmt.Println("  Creating a new Rivet project...")
	fmt.Println()

	if !isValidProjectName(name) {
		return fmt.Errorf("invalid project name %q: use letters, numbers, and hyphens", name)
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return fmt.Errorf("directory %q already exists", name)
	}

	if description == "" {
		description = "A Rivet web application"
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	info("Creating project from '%s' template...", templateName)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return err
	}
	if err := tmpl.Create(projectDir, templates.Config{
		ProjectName: name,
		Description: description,
		Port:        port,
	}); err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    npm install @swc/cli @swc/core")
	fmt.Println("    rivet dev")
	fmt.Println()
	fmt.Printf("  Your app will be running at http://localhost:%d\n", port)
	fmt.Println()

	return nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == ' ' || r == '/' || r == '\\' {
			return false
		}
		if i == 0 && r >= '0' && r <= '9' {
			return false
		}
	}
	return true
}
