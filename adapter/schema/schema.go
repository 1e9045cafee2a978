// Package schema contains the typed path registry of a collection and the
// compilers turning query, sort, update and population expressions into
// functions over records.
package schema

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ErrInvalidDefinition is returned when a schema definition contains a value
// that cannot be turned into a path.
type ErrInvalidDefinition struct {
	Path  string
	Value any
}

func (e ErrInvalidDefinition) Error() string {
	return fmt.Sprintf("invalid definition for path %q: %T", e.Path, e.Value)
}

// Field describes a path inside a definition given to [New]. Type is a
// [domain.SchemaType], a nested definition or a one-element slice.
type Field struct {
	Type     any
	Required bool
	Default  any
}

type path struct {
	name string
	addr []string
	typ  domain.SchemaType
	opts domain.PathOptions
}

// Schema is the ordered set of typed paths of a collection together with its
// hooks and method tables. Paths cannot be declared once the schema is
// frozen, which happens when a collection is created with it.
type Schema struct {
	comparer  domain.Comparer
	navigator domain.FieldNavigator
	decoder   domain.Decoder
	mixed     domain.SchemaType

	paths  map[string]*path
	order  []*path
	frozen atomic.Bool

	pre     map[domain.HookEvent][]domain.Hook
	post    map[domain.HookEvent][]domain.Hook
	statics map[string]domain.Static
	methods map[string]domain.Method
}

// New returns a new Schema declaring the paths found in def. def may be nil,
// a map, a [data.D] or a [data.M]. Each value is one of:
//
//   - a [domain.SchemaType];
//   - a [Field] carrying the type and its options;
//   - a nested definition, declaring an Object path and its children;
//   - a slice with at most one element, declaring an Array of that type.
func New(def any, opts ...Option) (*Schema, error) {
	s := &Schema{
		comparer:  comparer.NewComparer(),
		navigator: fieldnavigator.NewFieldNavigator(data.NewDocument),
		decoder:   decoder.NewDecoder(),
		paths:     map[string]*path{},
		pre:       map[domain.HookEvent][]domain.Hook{},
		post:      map[domain.HookEvent][]domain.Hook{},
		statics:   map[string]domain.Static{},
		methods:   map[string]domain.Method{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mixed = schematype.NewMixed(schematype.WithComparer(s.comparer))

	if def == nil {
		return s, nil
	}
	if err := s.define(def, ""); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) define(def any, prefix string) error {
	entries, ok := data.Entries(def)
	if !ok {
		return ErrInvalidDefinition{Path: prefix, Value: def}
	}
	for _, e := range entries {
		if err := s.declare(prefix+e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) declare(name string, v any) error {
	var opts domain.PathOptions
	if f, ok := v.(Field); ok {
		v = f.Type
		opts = domain.PathOptions{Required: f.Required, Default: f.Default}
	}
	withOpts := func(po *domain.PathOptions) { *po = opts }

	switch t := v.(type) {
	case domain.SchemaType:
		return s.Path(name, t, withOpts)
	case []any:
		if len(t) > 1 {
			return ErrInvalidDefinition{Path: name, Value: v}
		}
		var child domain.SchemaType
		if len(t) == 1 {
			var err error
			if child, err = s.elemType(name, t[0]); err != nil {
				return err
			}
		}
		return s.Path(name, schematype.NewArray(child), withOpts)
	case []domain.SchemaType:
		if len(t) > 1 {
			return ErrInvalidDefinition{Path: name, Value: v}
		}
		var child domain.SchemaType
		if len(t) == 1 {
			child = t[0]
		}
		return s.Path(name, schematype.NewArray(child), withOpts)
	}

	if _, ok := data.Entries(v); ok {
		if err := s.Path(name, schematype.NewObject(schematype.WithComparer(s.comparer)), withOpts); err != nil {
			return err
		}
		return s.define(v, name+".")
	}
	return ErrInvalidDefinition{Path: name, Value: v}
}

func (s *Schema) elemType(name string, v any) (domain.SchemaType, error) {
	if f, ok := v.(Field); ok {
		v = f.Type
	}
	if t, ok := v.(domain.SchemaType); ok {
		return t, nil
	}
	if _, ok := data.Entries(v); ok {
		return schematype.NewObject(schematype.WithComparer(s.comparer)), nil
	}
	return nil, ErrInvalidDefinition{Path: name, Value: v}
}

// Path declares name with the given type. Declaring an existing path
// replaces its type and options but keeps its position.
func (s *Schema) Path(name string, typ domain.SchemaType, opts ...domain.PathOption) error {
	if s.frozen.Load() {
		return domain.ErrSchemaFrozen
	}
	if name == "" || typ == nil {
		return ErrInvalidDefinition{Path: name, Value: typ}
	}
	p := &path{
		name: name,
		addr: s.navigator.GetAddress(name),
		typ:  typ,
		opts: domain.NewPathOptions(opts...),
	}
	if old, ok := s.paths[name]; ok {
		*old = *p
		return nil
	}
	s.paths[name] = p
	s.order = append(s.order, p)
	return nil
}

// Virtual returns the virtual path named name, declaring it if needed.
func (s *Schema) Virtual(name string) (*schematype.Virtual, error) {
	if p, ok := s.paths[name]; ok {
		if v, ok := p.typ.(*schematype.Virtual); ok {
			return v, nil
		}
	}
	v := schematype.NewVirtual()
	if err := s.Path(name, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup returns the type declared for name.
func (s *Schema) Lookup(name string) (domain.SchemaType, bool) {
	p, ok := s.paths[name]
	if !ok {
		return nil, false
	}
	return p.typ, true
}

// Options returns the options declared for name.
func (s *Schema) Options(name string) (domain.PathOptions, bool) {
	p, ok := s.paths[name]
	if !ok {
		return domain.PathOptions{}, false
	}
	return p.opts, true
}

// Paths returns the declared path names in declaration order.
func (s *Schema) Paths() []string {
	res := make([]string, len(s.order))
	for i, p := range s.order {
		res[i] = p.name
	}
	return res
}

// Freeze prevents further declarations. It is called when a collection is
// created with the schema.
func (s *Schema) Freeze() {
	s.frozen.Store(true)
}

// Frozen reports whether [Schema.Freeze] was called.
func (s *Schema) Frozen() bool {
	return s.frozen.Load()
}

// Navigator returns the navigator used to resolve dotted paths.
func (s *Schema) Navigator() domain.FieldNavigator {
	return s.navigator
}

// Decoder returns the decoder of the schema.
func (s *Schema) Decoder() domain.Decoder {
	return s.decoder
}

// typeOf returns the declared type of name, or the untyped type.
func (s *Schema) typeOf(name string) domain.SchemaType {
	if p, ok := s.paths[name]; ok {
		return p.typ
	}
	return s.mixed
}

// ApplyGetters materializes rec: every present value is cast into its live
// form, missing values receive their default or a generated value, and
// values given for virtual paths are handed to their setter.
func (s *Schema) ApplyGetters(rec domain.Document) error {
	for _, p := range s.order {
		value, defined := s.navigator.Get(rec, p.addr...)

		if v, ok := p.typ.(*schematype.Virtual); ok {
			if defined {
				s.navigator.Unset(rec, p.addr...)
				if setter := v.Setter(); setter != nil {
					setter(rec, value)
				}
			}
			continue
		}

		if defined && value != nil {
			res, err := p.typ.CastIn(value, true, rec)
			if err != nil {
				return withPath(p.name, err)
			}
			if err := s.set(rec, p, res); err != nil {
				return err
			}
			continue
		}

		res, err := s.defaultValue(p, rec)
		if err != nil {
			return err
		}
		if res != nil {
			if err := s.set(rec, p, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) defaultValue(p *path, rec domain.Document) (any, error) {
	var value any
	switch d := p.opts.Default.(type) {
	case nil:
		gen, ok := p.typ.(domain.Generator)
		if !ok {
			return nil, nil
		}
		v, err := gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", p.name, err)
		}
		return v, nil
	case func() any:
		value = d()
	default:
		value = data.Clone(d)
	}
	if value == nil {
		return nil, nil
	}
	res, err := p.typ.CastIn(value, true, rec)
	if err != nil {
		return nil, withPath(p.name, err)
	}
	return res, nil
}

// ApplySetters converts the live values of rec into their storage form in
// place. Virtual paths are removed and required paths are checked.
func (s *Schema) ApplySetters(rec domain.Document) error {
	for _, p := range s.order {
		if _, ok := p.typ.(*schematype.Virtual); ok {
			s.navigator.Unset(rec, p.addr...)
			continue
		}
		value, defined := s.navigator.Get(rec, p.addr...)
		if !defined || value == nil {
			if p.opts.Required {
				return domain.ErrValidation{Path: p.name, Reason: "is required"}
			}
			continue
		}
		out, keep := p.typ.CastOut(value, rec)
		if !keep {
			s.navigator.Unset(rec, p.addr...)
			continue
		}
		if err := s.set(rec, p, out); err != nil {
			return err
		}
	}
	return nil
}

// ToStorage converts a stored record into its snapshot form in place.
func (s *Schema) ToStorage(rec domain.Document) error {
	for _, p := range s.order {
		exp, ok := p.typ.(domain.Exporter)
		if !ok {
			continue
		}
		value, defined := s.navigator.Get(rec, p.addr...)
		if !defined || value == nil {
			continue
		}
		if err := s.set(rec, p, exp.Export(value)); err != nil {
			return err
		}
	}
	return nil
}

// FromStorage converts a record read from a snapshot into its stored form in
// place. It is the inverse of [Schema.ToStorage].
func (s *Schema) FromStorage(rec domain.Document) error {
	for _, p := range s.order {
		exp, ok := p.typ.(domain.Exporter)
		if !ok {
			continue
		}
		value, defined := s.navigator.Get(rec, p.addr...)
		if !defined || value == nil {
			continue
		}
		res, err := exp.Import(value)
		if err != nil {
			return withPath(p.name, err)
		}
		if err := s.set(rec, p, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) set(rec domain.Document, p *path, value any) error {
	if err := s.navigator.Set(rec, value, p.addr...); err != nil {
		return domain.ErrValidation{Path: p.name, Reason: err.Error()}
	}
	return nil
}

// withPath places the path name in front of validation errors raised by a
// type.
func withPath(name string, err error) error {
	var ev domain.ErrValidation
	if !errors.As(err, &ev) {
		return err
	}
	if ev.Path == "" {
		ev.Path = name
	} else {
		ev.Path = name + "." + ev.Path
	}
	return ev
}

func isOperator(key string) bool {
	return len(key) > 0 && key[0] == '$'
}

// operatorKeys reports whether every key of entries is an operator, and
// whether operators and fields are mixed.
func operatorKeys(entries []data.E) (all bool, mixed bool) {
	n := 0
	for _, e := range entries {
		if isOperator(e.Key) {
			n++
		}
	}
	return n > 0 && n == len(entries), n > 0 && n != len(entries)
}
