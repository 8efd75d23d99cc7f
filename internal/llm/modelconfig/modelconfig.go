package modelconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one named model configuration: which provider tag and model
// id to call, plus default sampling parameters a step can override.
type Profile struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// File is the top-level shape of a model-profile YAML file: a map of
// profile name to Profile.
type File struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads and parses a model-profile YAML file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modelconfig: reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("modelconfig: parsing %s: %w", path, err)
	}
	return &f, nil
}

// Lookup returns the named profile, or UnknownProfile if it is not
// declared in f.
func (f *File) Lookup(name string) (Profile, error) {
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, &UnknownProfile{Name: name}
	}
	return p, nil
}

// UnknownProfile reports a Lookup call for a profile name not present in
// the loaded file.
type UnknownProfile struct {
	Name string
}

func (e *UnknownProfile) Error() string {
	return fmt.Sprintf("modelconfig: no profile named %q", e.Name)
}
