// Package catalog is the registry of block kinds consumed by editors and
// validators: each kind's label, category, editable fields, data-flow ports
// and child slots. The registry is written in CUE and embedded; block data is
// checked by unifying it with the kind's schema.
//
// The parser and generator do not read the catalog. Tests keep the two views
// of the kind table in step.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/scriptblocks/internal/ir"
)

//go:embed catalog.cue
var builtinSource []byte

// BuiltinFilename is the name positions in the embedded source report.
const BuiltinFilename = "catalog.cue"

// Field is one editable data field of a kind.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	// Default is nil when the field has none.
	Default any `json:"default,omitempty"`
}

// Port is an attachment point for a data-flow connection.
type Port struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
}

// KindSchema describes one block kind.
type KindSchema struct {
	Kind       string   `json:"kind"`
	Label      string   `json:"label"`
	Category   string   `json:"category"`
	Fields     []Field  `json:"fields"`
	Ports      []Port   `json:"ports"`
	ChildSlots []string `json:"childSlots"`
}

// Field returns the field named name.
func (k KindSchema) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasPort reports whether the kind exposes a port named name.
func (k KindSchema) HasPort(name string) bool {
	return slices.ContainsFunc(k.Ports, func(p Port) bool { return p.Name == name })
}

// Catalog is a compiled kind registry. It is safe for concurrent use.
type Catalog struct {
	// mu guards ctx and value; a CUE context is not safe for concurrent use.
	mu    sync.Mutex
	ctx   *cue.Context
	value cue.Value

	kinds map[string]KindSchema
	order []string
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
	builtinErr  error
)

// Builtin returns the catalog compiled from the embedded source.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = Parse(BuiltinFilename, builtinSource)
	})
	return builtin, builtinErr
}

// Parse compiles a catalog from CUE source. The source must define a
// top-level kinds struct keyed by kind id.
func Parse(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeCompile, "", err)
	}
	if err := value.Validate(); err != nil {
		return nil, fromCUE(ErrCodeCompile, "", err)
	}

	kindsValue := value.LookupPath(cue.ParsePath("kinds"))
	if !kindsValue.Exists() {
		return nil, &Error{Code: ErrCodeCompile, Message: "no kinds defined", Pos: value.Pos()}
	}

	c := &Catalog{ctx: ctx, value: value, kinds: make(map[string]KindSchema)}
	iter, err := kindsValue.Fields()
	if err != nil {
		return nil, fromCUE(ErrCodeDecode, "", err)
	}
	for iter.Next() {
		kind := iter.Selector().Unquoted()
		schema, err := decodeKind(kind, iter.Value())
		if err != nil {
			return nil, err
		}
		c.kinds[kind] = schema
		c.order = append(c.order, kind)
	}
	return c, nil
}

func decodeKind(kind string, v cue.Value) (KindSchema, error) {
	var schema KindSchema
	if err := v.Decode(&schema); err != nil {
		return KindSchema{}, fromCUE(ErrCodeDecode, kind, err)
	}
	schema.Kind = kind
	for i := range schema.Fields {
		d := v.LookupPath(cue.MakePath(cue.Str("fields"), cue.Index(i), cue.Str("default")))
		if !d.Exists() {
			schema.Fields[i].Default = nil
			continue
		}
		def, err := primitive(d)
		if err != nil {
			return KindSchema{}, fromCUE(ErrCodeDecode, kind, err)
		}
		schema.Fields[i].Default = def
	}
	return schema, nil
}

// primitive reads a concrete scalar as the Go type block data uses for it.
func primitive(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		return v.Bool()
	case cue.StringKind:
		return v.String()
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return v.Float64()
	}
	return nil, fmt.Errorf("unsupported default of kind %s", v.IncompleteKind())
}

// Lookup returns the schema of kind.
func (c *Catalog) Lookup(kind string) (KindSchema, bool) {
	k, ok := c.kinds[kind]
	return k, ok
}

// Kinds returns every schema. Kinds the translation engine knows come first
// in its declaration order; the rest follow in source order.
func (c *Catalog) Kinds() []KindSchema {
	out := make([]KindSchema, 0, len(c.order))
	for _, kind := range ir.KnownKinds() {
		if k, ok := c.kinds[kind]; ok {
			out = append(out, k)
		}
	}
	for _, kind := range c.order {
		if !ir.IsKnownKind(kind) {
			out = append(out, c.kinds[kind])
		}
	}
	return out
}

// Categories returns the distinct categories in Kinds order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, k := range c.Kinds() {
		if !slices.Contains(out, k.Category) {
			out = append(out, k.Category)
		}
	}
	return out
}

// ValidateData unifies data with the schema of kind. Nil values count as
// absent. Keys the schema does not name are accepted.
func (c *Catalog) ValidateData(kind string, data map[string]any) error {
	if _, ok := c.kinds[kind]; !ok {
		return &Error{Code: ErrCodeUnknownKind, Kind: kind, Message: "not in catalog"}
	}

	present := make(map[string]any, len(data))
	for k, v := range data {
		if v != nil {
			present[k] = v
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	schema := c.value.LookupPath(cue.MakePath(cue.Str("kinds"), cue.Str(kind), cue.Str("schema")))
	encoded := c.ctx.Encode(present)
	if err := encoded.Err(); err != nil {
		return fromCUE(ErrCodeInvalidData, kind, err)
	}
	if err := schema.Unify(encoded).Validate(cue.Concrete(true)); err != nil {
		return fromCUE(ErrCodeInvalidData, kind, err)
	}
	return nil
}

// ValidateBlock is ValidateData with the block id attached to any error.
func (c *Catalog) ValidateBlock(b *ir.Block) error {
	err := c.ValidateData(b.Kind, b.Data)
	var ce *Error
	if errors.As(err, &ce) {
		ce.BlockID = b.ID
	}
	return err
}

// ValidateDocument checks every block of doc against the catalog and joins
// the failures in block id order.
func (c *Catalog) ValidateDocument(doc *ir.Document) error {
	ids := make([]string, 0, len(doc.Blocks))
	for id := range doc.Blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var errs []error
	for _, id := range ids {
		if err := c.ValidateBlock(doc.Blocks[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
