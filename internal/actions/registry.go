package actions

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gen1/internal/logging"
)

// Registry holds the schema of every action kind and validates headers
// against them. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	schemas  map[Kind]*ActionSchema
	compiled map[Kind]*jsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:  make(map[Kind]*ActionSchema),
		compiled: make(map[Kind]*jsonschema.Schema),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry loaded with DefaultSchemas.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		for _, s := range DefaultSchemas() {
			r.MustRegister(s)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register compiles and adds a schema.
func (r *Registry) Register(schema *ActionSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	doc, err := schema.JSONSchema()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, schema.Kind, err)
	}
	url := "https://gen1.local/schemas/actions/" + string(schema.Kind) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, schema.Kind, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, schema.Kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrSchemaAlreadyRegistered, schema.Kind)
	}
	r.schemas[schema.Kind] = schema
	r.compiled[schema.Kind] = compiled

	logging.ActionsDebug("Registered action schema: %s (family=%s)", schema.Kind, schema.Family)
	return nil
}

// MustRegister registers a schema and panics on error.
func (r *Registry) MustRegister(schema *ActionSchema) {
	if err := r.Register(schema); err != nil {
		panic(fmt.Sprintf("failed to register action schema %s: %v", schema.Kind, err))
	}
}

// Get returns the schema for kind, or nil when unregistered.
func (r *Registry) Get(kind Kind) *ActionSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[kind]
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[kind]
	return ok
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ByFamily returns the kinds of one family, sorted.
func (r *Registry) ByFamily(f Family) []Kind {
	var out []Kind
	for _, k := range r.Kinds() {
		if r.Get(k).Family == f {
			out = append(out, k)
		}
	}
	return out
}

// Count returns the number of registered schemas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Validate checks a decoded JSON header against its kind's schema and
// returns the typed action. Field types are never coerced.
func (r *Registry) Validate(header map[string]any) (Action, error) {
	kind := kindOf(header)
	if kind == "" {
		return nil, ErrUnknownAction
	}

	r.mu.RLock()
	compiled, ok := r.compiled[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}

	if err := compiled.Validate(header); err != nil {
		verr := classify(kind, err)
		logging.ActionsDebug("Header for %s rejected: %v", kind, verr)
		return nil, verr
	}
	return Decode(header)
}

// classify maps a schema violation onto the package's error kinds. A
// missing field or empty required array wins over a type error.
func classify(kind Kind, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFieldType, kind, err)
	}

	var missing, invalid []string
	for _, leaf := range leaves(ve) {
		loc := strings.TrimPrefix(leaf.InstanceLocation, "/")
		switch {
		case strings.HasSuffix(leaf.KeywordLocation, "/required"):
			missing = append(missing, leaf.Message)
		case strings.HasSuffix(leaf.KeywordLocation, "/minItems"):
			missing = append(missing, fmt.Sprintf("'%s' must not be empty", loc))
		default:
			invalid = append(invalid, fmt.Sprintf("'%s' %s", loc, leaf.Message))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for '%s': %s", ErrMissingRequiredField, kind, strings.Join(missing, "; "))
	}
	return fmt.Errorf("%w for '%s': %s", ErrInvalidFieldType, kind, strings.Join(invalid, "; "))
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
