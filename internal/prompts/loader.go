// Package prompts loads and renders the LLM prompt templates. Templates are embedded at
// compile time and may be overridden from a directory.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
)

//go:embed templates/*.md
var templateFiles embed.FS

// Template names.
const (
	System      = "system"
	Resume      = "resume"
	CoverLetter = "cover_letter"
)

// Recognized variables. Any other placeholder fails validation.
const (
	VarRoleLevel      = "role_level"
	VarCompanyName    = "company_name"
	VarJobTitle       = "job_title"
	VarJobDescription = "job_description"
	VarResumeText     = "resume_text"
)

var (
	// ErrTemplate is matched by *TemplateError.
	ErrTemplate = errors.New("invalid prompt template")
	// ErrUnknownTemplate is returned by Render for names that were never loaded.
	ErrUnknownTemplate = errors.New("unknown prompt template")

	placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)
	names       = []string{System, Resume, CoverLetter}
	variables   = []string{VarRoleLevel, VarCompanyName, VarJobTitle, VarJobDescription, VarResumeText}
)

// Variables returns the recognized variable names.
func Variables() []string {
	return slices.Clone(variables)
}

// TemplateError lists the problems found in a template.
type TemplateError struct {
	Name    string
	Unknown []string
	Missing []string
}

func (e *TemplateError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown variables: "+strings.Join(e.Unknown, ", "))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing values: "+strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("prompt template %q: %s", e.Name, strings.Join(parts, "; "))
}

func (e *TemplateError) Is(target error) bool {
	return target == ErrTemplate
}

// Vars maps variable names to values.
type Vars map[string]string

// Loader holds validated templates.
type Loader struct {
	templates map[string]string
}

// NewLoader loads the embedded templates and replaces them with <dir>/<name>.md where such
// files exist. An empty dir uses the embedded set only. Every template is validated.
func NewLoader(dir string) (*Loader, error) {
	l := &Loader{templates: make(map[string]string, len(names))}

	for _, name := range names {
		data, err := templateFiles.ReadFile("templates/" + name + ".md")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt %s: %w", name, err)
		}
		text := string(data)

		if dir != "" {
			override, err := os.ReadFile(filepath.Join(dir, name+".md"))
			switch {
			case err == nil:
				text = string(override)
			case !errors.Is(err, os.ErrNotExist):
				return nil, fmt.Errorf("failed to read prompt override %s: %w", name, err)
			}
		}

		if err := Validate(name, text); err != nil {
			return nil, err
		}
		l.templates[name] = text
	}

	return l, nil
}

// Validate rejects templates referencing variables outside the recognized set.
func Validate(name, text string) error {
	var unknown []string
	for _, v := range referenced(text) {
		if !slices.Contains(variables, v) {
			unknown = append(unknown, v)
		}
	}
	if len(unknown) > 0 {
		return &TemplateError{Name: name, Unknown: unknown}
	}
	return nil
}

// Render substitutes vars into the named template. Every variable the template references
// must have a value.
func (l *Loader) Render(name string, vars Vars) (string, error) {
	text, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	if err := Validate(name, text); err != nil {
		return "", err
	}

	var missing []string
	for _, v := range referenced(text) {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", &TemplateError{Name: name, Missing: missing}
	}

	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		return vars[placeholder.FindStringSubmatch(m)[1]]
	}), nil
}

// Names lists the loaded templates.
func (l *Loader) Names() []string {
	out := make([]string, 0, len(l.templates))
	for name := range l.templates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// referenced returns the distinct variables of a template in order of first use.
func referenced(text string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}
