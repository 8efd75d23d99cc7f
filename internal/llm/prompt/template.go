package prompt

import (
	"fmt"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/exec"
)

// Template is a parsed prompt template, ready to be rendered repeatedly
// against different variable sets.
type Template struct {
	tpl  *exec.Template
	name string
}

// LoadFile parses the template file at path.
func LoadFile(path string) (*Template, error) {
	tpl, err := gonja.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: parsing %s: %w", path, err)
	}
	return &Template{tpl: tpl, name: path}, nil
}

// LoadString parses src as a named template, for inline prompts that
// don't warrant their own file.
func LoadString(name, src string) (*Template, error) {
	tpl, err := gonja.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("prompt: parsing %s: %w", name, err)
	}
	return &Template{tpl: tpl, name: name}, nil
}

// Render executes t against vars and returns the resulting text.
func (t *Template) Render(vars map[string]any) (string, error) {
	out, err := t.tpl.Execute(vars)
	if err != nil {
		return "", fmt.Errorf("prompt: rendering %s: %w", t.name, err)
	}
	return out, nil
}
