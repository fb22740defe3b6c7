package gemini

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/phrazzld/coursegen/internal/domain"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// templateFiles maps each kind to its template file name.
var templateFiles = map[domain.Kind]string{
	domain.KindMetadata: "metadata.tmpl",
	domain.KindModule:   "module.tmpl",
}

type metadataPrompt struct {
	Prompt      string
	Audience    string
	ModuleCount int
}

type modulePrompt struct {
	CourseTitle       string
	ModuleTitle       string
	ModuleDescription string
	ModuleNumber      int
}

// loadTemplates parses the prompt template of every kind. A file in dir
// replaces the embedded template of the same name; an empty dir uses only
// the embedded set.
func loadTemplates(dir string) (map[domain.Kind]*template.Template, error) {
	out := make(map[domain.Kind]*template.Template, len(templateFiles))
	for kind, name := range templateFiles {
		content, err := readTemplate(dir, name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt template %s: %w", name, err)
		}
		out[kind] = tmpl
	}
	return out, nil
}

func readTemplate(dir, name string) ([]byte, error) {
	if dir != "" {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read prompt template %s: %w", name, err)
		}
	}
	content, err := embeddedTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, name)
	}
	return content, nil
}

// renderPrompt executes the template for the payload's kind.
func renderPrompt(templates map[domain.Kind]*template.Template, payload domain.Payload) (string, error) {
	tmpl, ok := templates[payload.Kind()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateMissing, payload.Kind())
	}

	var data any
	switch p := payload.(type) {
	case domain.MetadataRequest:
		data = metadataPrompt{Prompt: p.Prompt, Audience: p.Audience, ModuleCount: p.ModuleCount}
	case domain.ModuleRequest:
		data = modulePrompt{
			CourseTitle:       p.CourseTitle,
			ModuleTitle:       p.ModuleTitle,
			ModuleDescription: p.ModuleDescription,
			ModuleNumber:      p.ModuleIndex + 1,
		}
	default:
		return "", fmt.Errorf("%w: %T", domain.ErrUnknownKind, payload)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
