package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationAmbiguity is wrapped when more than one entry names the
// same document.
var ErrConfigurationAmbiguity = errors.New("configuration ambiguity")

// PathList is a list of path strings. A single string is accepted in place of
// a one-element list.
type PathList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *PathList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = single(s)
		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		*l = arr
		return nil
	default:
		return fmt.Errorf("expected path or list of paths, got %v", node.Tag)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *PathList) UnmarshalJSON(b []byte) error {
	var s string
	if err := j.Unmarshal(b, &s); err == nil {
		*l = single(s)
		return nil
	}
	var arr []string
	if err := j.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("expected path or list of paths: %w", err)
	}
	*l = arr
	return nil
}

func single(s string) PathList {
	if s == "" {
		return PathList{}
	}
	return PathList{s}
}

// Entry is one configuration record. File and JSONFile are alternative keys
// naming the document; the element and field variants of each list merge.
type Entry struct {
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	JSONFile string `json:"json_file,omitempty" yaml:"json_file,omitempty"`

	OptionalFields   PathList `json:"optional_fields,omitempty" yaml:"optional_fields,omitempty"`
	OptionalElements PathList `json:"optional_elements,omitempty" yaml:"optional_elements,omitempty"`
	AllowNullFields  PathList `json:"allow_null_fields,omitempty" yaml:"allow_null_fields,omitempty"`
	ExcludeFields    PathList `json:"exclude_fields,omitempty" yaml:"exclude_fields,omitempty"`
	ExcludeElements  PathList `json:"exclude_elements,omitempty" yaml:"exclude_elements,omitempty"`
}

// Names returns the document names the entry matches.
func (e Entry) Names() []string {
	var out []string
	if e.File != "" {
		out = append(out, e.File)
	}
	if e.JSONFile != "" && e.JSONFile != e.File {
		out = append(out, e.JSONFile)
	}
	return out
}

// Matches reports whether the entry names filename. File is compared with
// the full name; JSONFile also matches the name of a .json file without its
// extension.
func (e Entry) Matches(filename string) bool {
	if filename == "" {
		return false
	}
	if e.File == filename || e.JSONFile == filename {
		return true
	}
	stem, ok := strings.CutSuffix(filename, ".json")
	return ok && stem != "" && e.JSONFile == stem
}

// Policy builds the field policy the entry describes.
func (e Entry) Policy() *Policy {
	return &Policy{
		Optional: NewPathSet(append(append([]string{}, e.OptionalFields...), e.OptionalElements...)...),
		Nullable: NewPathSet(e.AllowNullFields...),
		Excluded: NewPathSet(append(append([]string{}, e.ExcludeFields...), e.ExcludeElements...)...),
	}
}

// Config is the ordered list of entries.
type Config []Entry

// Resolve returns the policy for the document named filename. Only the base
// name is compared. No matching entry yields the empty policy; more
// than one is an error wrapping ErrConfigurationAmbiguity.
func (c Config) Resolve(filename string) (*Policy, error) {
	name := filepath.Base(filename)
	var hits []int
	for i, e := range c {
		if e.Matches(name) {
			hits = append(hits, i)
		}
	}
	switch len(hits) {
	case 0:
		return Empty(), nil
	case 1:
		return c[hits[0]].Policy(), nil
	}
	idx := make([]string, len(hits))
	for i, h := range hits {
		idx[i] = fmt.Sprintf("%d (%s)", h, strings.Join(c[h].Names(), ", "))
	}
	return nil, fmt.Errorf("%w: %q matches entries %s", ErrConfigurationAmbiguity, name, strings.Join(idx, "; "))
}

// LoadConfig reads a configuration file. YAML is used for .yaml and .yml,
// JSON otherwise. A missing file yields an empty configuration.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig parses configuration data. ext selects the syntax as in
// LoadConfig.
func ParseConfig(data []byte, ext string) (Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if len(strings.TrimSpace(string(data))) == 0 {
			return Config{}, nil
		}
		if err := j.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return c, nil
}
