package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goplus/llman/pkgs/mod/module"
	xerrors "github.com/qiniu/x/errors"
	"gopkg.in/yaml.v3"
)

// FileNames are the manifest file names Find looks for, in order.
var FileNames = []string{"llman.toml", "llman.yaml", "llman.yml"}

// Find returns the path of the manifest file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no manifest in %s (want one of %s): %w", dir, strings.Join(FileNames, ", "), fs.ErrNotExist)
}

// Load reads a manifest file. The format follows the file extension:
// ".toml", ".yaml" or ".yml". Loading stops at the first bad declaration.
// The returned manifest is in pass 0 and not frozen.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse decodes manifest data; name selects the format by extension and
// prefixes error messages.
func Parse(name string, data []byte) (*Manifest, error) {
	f, err := decode(name, data)
	if err != nil {
		return nil, err
	}
	if len(f.problems) > 0 {
		return nil, fmt.Errorf("%s: %w", name, f.problems[0])
	}
	m := New()
	var first error
	f.apply(m, func(err error) bool {
		first = fmt.Errorf("%s: %w", name, err)
		return false
	})
	if first != nil {
		return nil, first
	}
	return m, nil
}

// Check reads a manifest file and reports every bad declaration in it,
// not just the first one.
func Check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := decode(path, data)
	if err != nil {
		return err
	}
	var errs xerrors.List
	for _, err := range f.problems {
		errs.Add(fmt.Errorf("%s: %w", path, err))
	}
	f.apply(New(), func(err error) bool {
		errs.Add(fmt.Errorf("%s: %w", path, err))
		return true
	})
	return errs.ToError()
}

// ParseOption parses a command line option override:
//
//	boost/*:without_python=True
//	*:shared=false
//	shared=false          (same as *:shared=false)
func ParseOption(s string) (pattern, name string, v Value, err error) {
	key, text, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", Value{}, fmt.Errorf("%w: %q: want pattern:option=value", ErrInvalidPattern, s)
	}
	pattern, name, err = splitOptionKey(strings.TrimSpace(key))
	if err != nil {
		return "", "", Value{}, err
	}
	return pattern, name, ParseValue(strings.TrimSpace(text)), nil
}

func splitOptionKey(key string) (pattern, name string, err error) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return Wildcard, key, nil
	}
	pattern, name = key[:i], key[i+1:]
	if pattern == "" {
		return "", "", fmt.Errorf("%w: %q: empty pattern", ErrInvalidPattern, key)
	}
	return pattern, name, nil
}

// file is the decoded form shared by the TOML and YAML loaders.
type file struct {
	name       string
	version    string
	settings   []string
	generators []string
	requires   []string
	options    []option // in declaration order

	// problems found while decoding that do not stop decoding
	problems []error
}

type option struct {
	pattern string
	name    string
	value   Value
}

// apply declares the contents of f on m, calling report for every failed
// declaration until report returns false.
func (f *file) apply(m *Manifest, report func(error) bool) {
	m.Name, m.Version = f.name, f.version
	if err := m.DeclareSettings(f.settings...); err != nil && !report(err) {
		return
	}
	for _, g := range f.generators {
		if err := m.AddGenerator(g); err != nil && !report(err) {
			return
		}
	}
	for _, s := range f.requires {
		ref, err := module.ParseRef(s)
		if err == nil {
			err = m.DeclareRequirement(ref.Name, ref.Version, ref.Origin)
		}
		if err != nil && !report(err) {
			return
		}
	}
	for _, o := range f.options {
		if err := m.DeclareOption(o.pattern, o.name, o.value); err != nil && !report(err) {
			return
		}
	}
}

func (f *file) addOption(key string, v Value) {
	pattern, name, err := splitOptionKey(key)
	if err != nil {
		f.problems = append(f.problems, err)
		return
	}
	f.options = append(f.options, option{pattern: pattern, name: name, value: v})
}

func decode(name string, data []byte) (*file, error) {
	var (
		f   *file
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".toml":
		f, err = decodeTOML(data)
	case ".yaml", ".yml":
		f, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%s: unsupported manifest format %q", name, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

type tomlFile struct {
	Name       string         `toml:"name"`
	Version    string         `toml:"version"`
	Settings   []string       `toml:"settings"`
	Generators []string       `toml:"generators"`
	Requires   []string       `toml:"requires"`
	Options    map[string]any `toml:"options"`
}

// decodeTOML decodes a TOML manifest. Options may be written flat or
// grouped by pattern:
//
//	[options]
//	"boost/*:without_python" = true
//
//	[options."nlohmann_json/*"]
//	multiple_headers = true
func decodeTOML(data []byte) (*file, error) {
	var tf tomlFile
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&tf)
	if err != nil {
		return nil, err
	}
	f := &file{
		name:       tf.Name,
		version:    tf.Version,
		settings:   tf.Settings,
		generators: tf.Generators,
		requires:   tf.Requires,
	}
	for _, key := range md.Undecoded() {
		f.problems = append(f.problems, fmt.Errorf("unknown key %q", key.String()))
	}
	// Keys reports keys in document order, which is declaration order.
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "options" {
			continue
		}
		var (
			raw any
			k   string
		)
		switch len(key) {
		case 2:
			raw = tf.Options[key[1]]
			if _, ok := raw.(map[string]any); ok {
				continue // table header, its entries follow
			}
			k = key[1]
		case 3:
			group, _ := tf.Options[key[1]].(map[string]any)
			raw = group[key[2]]
			k = key[1] + ":" + key[2]
		default:
			f.problems = append(f.problems, fmt.Errorf("option %q nested too deeply", key.String()))
			continue
		}
		v, err := ValueOf(raw)
		if err != nil {
			f.problems = append(f.problems, fmt.Errorf("option %q: %w", k, err))
			continue
		}
		f.addOption(k, v)
	}
	return f, nil
}

// decodeYAML decodes a YAML manifest. Option order is taken from the
// mapping order in the document.
func decodeYAML(data []byte) (*file, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	f := new(file)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: manifest must be a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			err = val.Decode(&f.name)
		case "version":
			err = val.Decode(&f.version)
		case "settings":
			err = val.Decode(&f.settings)
		case "generators":
			err = val.Decode(&f.generators)
		case "requires":
			err = val.Decode(&f.requires)
		case "options":
			err = f.yamlOptions(val, "")
		default:
			err = fmt.Errorf("line %d: unknown key %q", key.Line, key.Value)
		}
		if err != nil {
			f.problems = append(f.problems, err)
		}
	}
	return f, nil
}

func (f *file) yamlOptions(n *yaml.Node, pattern string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		k := key.Value
		if pattern != "" {
			k = pattern + ":" + k
		}
		if val.Kind == yaml.MappingNode {
			if pattern != "" {
				f.problems = append(f.problems, fmt.Errorf("line %d: option %q nested too deeply", key.Line, k))
				continue
			}
			if err := f.yamlOptions(val, key.Value); err != nil {
				f.problems = append(f.problems, err)
			}
			continue
		}
		v, err := yamlValue(val)
		if err != nil {
			f.problems = append(f.problems, fmt.Errorf("line %d: option %q: %w", val.Line, k, err))
			continue
		}
		f.addOption(k, v)
	}
	return nil
}

func yamlValue(n *yaml.Node) (Value, error) {
	if n.Kind != yaml.ScalarNode {
		return Value{}, errors.New("value must be a scalar")
	}
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case "!!str":
		return ParseValue(n.Value), nil
	case "!!int", "!!float":
		return StringValue(n.Value), nil
	}
	return Value{}, fmt.Errorf("unsupported value %q", n.Value)
}
