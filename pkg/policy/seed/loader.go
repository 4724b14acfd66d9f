package seed

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/ferry/pkg/policy"
)

// MaxFileSize bounds the size of a seed file.
const MaxFileSize = 4 << 20

// Policy is one validated seed entry.
type Policy struct {
	ID         policy.ID
	Attributes policy.Attributes
	Payload    []byte

	// Remove deletes the policy instead of setting it.
	Remove bool

	// Line is where the entry starts in the seed file.
	Line int
}

// File is a parsed seed file.
type File struct {
	Path     string
	Policies []Policy
}

type rawEntry struct {
	ID         string   `yaml:"id"`
	Attributes []string `yaml:"attributes"`
	Text       *string  `yaml:"text"`
	Hex        *string  `yaml:"hex"`
	Base64     *string  `yaml:"base64"`
	Remove     bool     `yaml:"remove"`
}

var entryKeys = []string{"id", "attributes", "text", "hex", "base64", "remove"}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	return Parse(path, data)
}

// Parse parses seed file contents. path is only used in errors. Every entry
// is checked; all problems are returned together.
func Parse(path string, data []byte) (*File, error) {
	f := &File{Path: path}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid YAML", Cause: err}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return f, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &EntryError{FilePath: path, Line: doc.Line, Message: "top level must be a mapping with a policies key"}
	}

	var entries *yaml.Node
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		if key.Value != "policies" {
			return nil, &EntryError{FilePath: path, Line: key.Line, Field: key.Value, Message: "unknown top-level key"}
		}
		entries = val
	}
	if entries == nil || entries.Tag == "!!null" {
		return f, nil
	}
	if entries.Kind != yaml.SequenceNode {
		return nil, &EntryError{FilePath: path, Line: entries.Line, Field: "policies", Message: "must be a list"}
	}

	var errs ErrorList
	for _, node := range entries.Content {
		p, err := parseEntry(path, node)
		if err != nil {
			errs.Add(err)
			continue
		}
		f.Policies = append(f.Policies, p)
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return f, nil
}

func parseEntry(path string, node *yaml.Node) (Policy, error) {
	fail := func(id, field, msg string, cause error) error {
		return &EntryError{FilePath: path, Line: node.Line, PolicyID: id, Field: field, Message: msg, Cause: cause}
	}

	if node.Kind != yaml.MappingNode {
		return Policy{}, fail("", "", "entry must be a mapping", nil)
	}
	for i := 0; i < len(node.Content); i += 2 {
		if k := node.Content[i].Value; !slices.Contains(entryKeys, k) {
			return Policy{}, fail("", k, "unknown key", nil)
		}
	}

	var raw rawEntry
	if err := node.Decode(&raw); err != nil {
		return Policy{}, fail("", "", "malformed entry", err)
	}

	if raw.ID == "" {
		return Policy{}, fail("", "id", "is required", nil)
	}
	id, err := policy.ParseID(raw.ID)
	if err != nil {
		return Policy{}, fail(raw.ID, "id", "is not a GUID", err)
	}
	if id.IsZero() {
		return Policy{}, fail(raw.ID, "id", "must not be the nil GUID", nil)
	}

	attrs, err := policy.ParseAttributes(raw.Attributes)
	if err != nil {
		return Policy{}, fail(raw.ID, "attributes", "invalid", err)
	}

	p := Policy{ID: id, Attributes: attrs, Remove: raw.Remove, Line: node.Line}

	sources := 0
	for _, s := range []*string{raw.Text, raw.Hex, raw.Base64} {
		if s != nil {
			sources++
		}
	}
	if raw.Remove {
		if sources > 0 || len(raw.Attributes) > 0 {
			return Policy{}, fail(raw.ID, "remove", "a removal takes no payload or attributes", nil)
		}
		return p, nil
	}
	if sources != 1 {
		return Policy{}, fail(raw.ID, "", "exactly one of text, hex or base64 is required", nil)
	}

	switch {
	case raw.Text != nil:
		p.Payload = []byte(*raw.Text)
	case raw.Hex != nil:
		p.Payload, err = hex.DecodeString(strings.Join(strings.Fields(*raw.Hex), ""))
		if err != nil {
			return Policy{}, fail(raw.ID, "hex", "invalid hex payload", err)
		}
	case raw.Base64 != nil:
		p.Payload, err = base64.StdEncoding.DecodeString(strings.TrimSpace(*raw.Base64))
		if err != nil {
			return Policy{}, fail(raw.ID, "base64", "invalid base64 payload", err)
		}
	}

	if len(p.Payload) == 0 {
		return Policy{}, fail(raw.ID, "", "payload must not be empty", nil)
	}
	if len(p.Payload) > policy.MaxPayloadSize {
		return Policy{}, fail(raw.ID, "", fmt.Sprintf("payload of %d bytes exceeds %d", len(p.Payload), policy.MaxPayloadSize), nil)
	}
	return p, nil
}
