// Package declare loads route declarations from files.
//
// A declaration file lists routes with their handler names and optional
// handler parameter metadata. YAML, JSON, JSONC and TOML are accepted; every
// format is normalised to JSON and validated against the embedded schema
// before it is decoded, so all formats fail the same way.
package declare

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/parser"
	"github.com/aledsdavies/routekit/runtime/router"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://declarations.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// Format is a declaration file syntax.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatTOML  Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%s: unsupported declaration format %q", path, filepath.Ext(path))
	}
}

// File is a decoded declaration file.
type File struct {
	Version int     `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Routes  []Route `json:"routes" yaml:"routes" toml:"routes"`
}

// Route declares one pattern.
type Route struct {
	Pattern     string  `json:"pattern" yaml:"pattern" toml:"pattern"`
	Handler     string  `json:"handler" yaml:"handler" toml:"handler"`
	Group       string  `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Params      []Param `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Param is handler parameter metadata.
type Param struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
}

// Problem is one schema violation.
type Problem struct {
	Location string // JSON pointer into the document, e.g. "/routes/2"
	Message  string
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid route declarations")
	for _, p := range e.Problems {
		location := p.Location
		if location == "" {
			location = "/"
		}
		fmt.Fprintf(&b, "\n  %s: %s", location, p.Message)
	}
	return b.String()
}

// Load reads, validates and decodes a declaration file. Each declaration's
// source is "path#routes[i]".
func Load(path string) ([]router.Declaration, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	file, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file.Declarations(path), nil
}

// Parse validates and decodes a document in the given format.
func Parse(data []byte, format Format) (*File, error) {
	normalized, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling declaration schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", format, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, convertValidationError(err)
	}

	var file File
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, fmt.Errorf("decoding declarations: %w", err)
	}
	return &file, nil
}

// toJSON normalises a document to JSON so one schema validates every format.
func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatJSONC:
		return jsonc.ToJSON(data), nil
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		return marshalDocument(doc, format)
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		return marshalDocument(doc, format)
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}
}

func marshalDocument(doc any, format Format) ([]byte, error) {
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", format, err)
	}
	return out, nil
}

func convertValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var problems []Problem
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		problems = append(problems, Problem{Location: e.InstanceLocation, Message: e.Error})
	}
	if len(problems) == 0 {
		problems = append(problems, Problem{Location: ve.InstanceLocation, Message: ve.Message})
	}
	return &ValidationError{Problems: problems}
}

// Declarations maps the file onto router declarations. name prefixes each
// declaration's source.
func (f *File) Declarations(name string) []router.Declaration {
	decls := make([]router.Declaration, len(f.Routes))
	for i, r := range f.Routes {
		var params []route.HandlerParam
		for _, p := range r.Params {
			params = append(params, route.HandlerParam{Name: p.Name, Type: p.Type, Optional: p.Optional})
		}
		decls[i] = router.Declaration{
			Pattern:     r.Pattern,
			Handler:     route.HandlerRef{Name: r.Handler, Params: params},
			Group:       r.Group,
			Description: r.Description,
			Source:      fmt.Sprintf("%s#routes[%d]", name, i),
		}
	}
	return decls
}

// Canonicalize rewrites every pattern into canonical text. Patterns that do
// not parse are left as they are and reported together.
func (f *File) Canonicalize() error {
	var errs []error
	for i := range f.Routes {
		canonical, err := parser.Canonicalize(f.Routes[i].Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("routes[%d]: %w", i, err))
			continue
		}
		f.Routes[i].Pattern = canonical
	}
	return errors.Join(errs...)
}

// Encode renders the file. JSONC is written as plain JSON.
func (f *File) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON, FormatJSONC:
		out, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}
}
