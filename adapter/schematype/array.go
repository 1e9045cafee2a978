package schematype

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Array stores lists. When a child type is set every element is cast and
// ordered through it. A scalar value is wrapped into a one-element list.
type Array struct {
	table
	child domain.SchemaType
}

// NewArray returns a new Array type. child may be nil for untyped elements.
func NewArray(child domain.SchemaType) *Array {
	a := &Array{table: newTable(), child: child}
	a.merge(baseTable(a.equal, a.castArg))
	a.merge(arrayQueries(a.castElem, a.elemEqual))
	a.merge(arrayUpdates(a.elemEqual))
	return a
}

// Name implements [domain.SchemaType].
func (a *Array) Name() string { return "Array" }

// Child returns the element type, or nil.
func (a *Array) Child() domain.SchemaType { return a.child }

// CastIn implements [domain.SchemaType].
func (a *Array) CastIn(value any, defined bool, doc domain.Document) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	norm, err := data.Normalize(value)
	if err != nil {
		return nil, invalid("is not an array: %v", err)
	}
	list, ok := norm.([]any)
	if !ok {
		list = []any{norm}
	}
	if a.child == nil {
		return list, nil
	}
	for i, item := range list {
		if list[i], err = a.child.CastIn(item, true, doc); err != nil {
			var ev domain.ErrValidation
			if errors.As(err, &ev) {
				return nil, domain.ErrValidation{Path: joinPath(strconv.Itoa(i), ev.Path), Reason: ev.Reason}
			}
			return nil, err
		}
	}
	return list, nil
}

// CastOut implements [domain.SchemaType].
func (a *Array) CastOut(value any, doc domain.Document) (any, bool) {
	list, ok := value.([]any)
	if !ok || a.child == nil {
		return value, true
	}
	res := make([]any, len(list))
	for i, item := range list {
		if v, keep := a.child.CastOut(item, doc); keep {
			res[i] = v
		}
	}
	return res, true
}

// Compare implements [domain.SchemaType]. Lists are compared element by
// element, then by length.
func (a *Array) Compare(x, y any) int {
	lx, xok := x.([]any)
	ly, yok := y.([]any)
	if !xok || !yok {
		return defaultComparer.Compare(x, y)
	}
	for i := range min(len(lx), len(ly)) {
		if c := a.elemCompare(lx[i], ly[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(lx), len(ly))
}

// Export implements [domain.Exporter].
func (a *Array) Export(value any) any {
	exp, ok := a.child.(domain.Exporter)
	list, isList := value.([]any)
	if !ok || !isList {
		return value
	}
	res := make([]any, len(list))
	for i, item := range list {
		res[i] = exp.Export(item)
	}
	return res
}

// Import implements [domain.Exporter].
func (a *Array) Import(value any) (any, error) {
	exp, ok := a.child.(domain.Exporter)
	list, isList := value.([]any)
	if !ok || !isList {
		return value, nil
	}
	res := make([]any, len(list))
	for i, item := range list {
		var err error
		if res[i], err = exp.Import(item); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (a *Array) elemCompare(x, y any) int {
	if a.child != nil && x != nil && y != nil {
		return a.child.Compare(x, y)
	}
	return defaultComparer.Compare(x, y)
}

func (a *Array) elemEqual(value, arg any) bool {
	if re, ok := arg.(*regexp.Regexp); ok {
		return matchesRegexp(value, re)
	}
	return a.elemCompare(value, a.castElem(arg)) == 0
}

func (a *Array) castElem(arg any) any {
	if a.child == nil || arg == nil {
		return arg
	}
	if _, ok := arg.(*regexp.Regexp); ok {
		return arg
	}
	if v, err := a.child.CastIn(arg, true, nil); err == nil {
		return v
	}
	return arg
}

func (a *Array) castArg(arg any) any {
	if list, ok := arg.([]any); ok {
		res := make([]any, len(list))
		for i, item := range list {
			res[i] = a.castElem(item)
		}
		return res
	}
	return a.castElem(arg)
}

// equal matches a whole list when arg is a list, otherwise it reports
// whether the list contains arg.
func (a *Array) equal(value, arg any) bool {
	list, ok := value.([]any)
	if !ok {
		return false
	}
	if argList, ok := arg.([]any); ok {
		return a.Compare(list, argList) == 0
	}
	return slices.ContainsFunc(list, func(item any) bool {
		return a.elemEqual(item, arg)
	})
}

// items returns the elements of a list value. Scalars are treated as a single
// element list.
func items(value any, defined bool) []any {
	if !defined || value == nil {
		return nil
	}
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

// arrayQueries returns the operators testing list contents.
func arrayQueries(cast castFunc, elemEqual equalFunc) table {
	t := newTable()
	if cast == nil {
		cast = identity
	}

	contains := func(list []any, member any) bool {
		return slices.ContainsFunc(list, func(item any) bool {
			return item != nil && elemEqual(item, member)
		})
	}
	in := func(op string, arg any) (domain.FieldPredicate, error) {
		members, ok := arg.([]any)
		if !ok {
			return nil, compileError(op, "argument must be a list, got %T", arg)
		}
		members = slices.Clone(members)
		for i, m := range members {
			members[i] = cast(m)
		}
		return func(value any, defined bool) bool {
			list := items(value, defined)
			if len(list) == 0 && (!defined || value == nil) {
				return slices.Contains(members, nil)
			}
			for _, m := range members {
				if m != nil && contains(list, m) {
					return true
				}
			}
			return false
		}, nil
	}
	t.query["$in"] = func(arg any) (domain.FieldPredicate, error) {
		return in("$in", arg)
	}
	t.query["$nin"] = func(arg any) (domain.FieldPredicate, error) {
		p, err := in("$nin", arg)
		if err != nil {
			return nil, err
		}
		return not(p), nil
	}
	t.query["$all"] = func(arg any) (domain.FieldPredicate, error) {
		members, ok := arg.([]any)
		if !ok {
			return nil, compileError("$all", "argument must be a list, got %T", arg)
		}
		return func(value any, defined bool) bool {
			list := items(value, defined)
			for _, m := range members {
				if !contains(list, cast(m)) {
					return false
				}
			}
			return true
		}, nil
	}
	size := func(name string) domain.QueryOperator {
		return func(arg any) (domain.FieldPredicate, error) {
			n, ok := toInt(arg)
			if !ok {
				return nil, compileError(name, "argument must be an integer, got %v", arg)
			}
			return func(value any, defined bool) bool {
				switch t := value.(type) {
				case []any:
					return defined && len(t) == n
				case string:
					return defined && utf8.RuneCountInString(t) == n
				}
				return false
			}, nil
		}
	}
	t.query["$size"] = size("$size")
	t.query["$length"] = size("$length")
	return t
}

func listValue(value any, defined bool) ([]any, error) {
	if !defined || value == nil {
		return []any{}, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, invalid("is not an array")
	}
	return slices.Clone(list), nil
}

func argItems(arg any) []any {
	if list, ok := arg.([]any); ok {
		return data.Clone(list).([]any)
	}
	return []any{data.Clone(arg)}
}

// count reads the argument of $shift and $pop: true means one.
func count(op string, arg any) (int, error) {
	if b, ok := arg.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	n, ok := toInt(arg)
	if !ok {
		return 0, compileError(op, "argument must be a boolean or an integer, got %v", arg)
	}
	return n, nil
}

// arrayUpdates returns the list update operators. Missing or nil values are
// treated as empty lists.
func arrayUpdates(elemEqual equalFunc) table {
	t := newTable()
	mutate := func(name string, compile func(arg any) (func([]any) []any, error)) {
		t.update[name] = func(arg any) (domain.FieldMutator, error) {
			apply, err := compile(arg)
			if err != nil {
				return nil, err
			}
			return func(_ domain.Document, value any, defined bool) (any, bool, error) {
				list, err := listValue(value, defined)
				if err != nil {
					return nil, false, err
				}
				return apply(list), true, nil
			}, nil
		}
	}
	indexOf := func(list []any, v any) int {
		return slices.IndexFunc(list, func(item any) bool {
			return elemEqual(item, v)
		})
	}

	mutate("$push", func(arg any) (func([]any) []any, error) {
		return func(list []any) []any {
			return append(list, argItems(arg)...)
		}, nil
	})
	mutate("$unshift", func(arg any) (func([]any) []any, error) {
		return func(list []any) []any {
			return append(argItems(arg), list...)
		}, nil
	})
	mutate("$pull", func(arg any) (func([]any) []any, error) {
		remove := argItems(arg)
		return func(list []any) []any {
			return slices.DeleteFunc(list, func(item any) bool {
				return slices.ContainsFunc(remove, func(r any) bool {
					return elemEqual(item, r)
				})
			})
		}, nil
	})
	mutate("$addToSet", func(arg any) (func([]any) []any, error) {
		return func(list []any) []any {
			for _, v := range argItems(arg) {
				if indexOf(list, v) < 0 {
					list = append(list, v)
				}
			}
			return list
		}, nil
	})
	mutate("$shift", func(arg any) (func([]any) []any, error) {
		n, err := count("$shift", arg)
		if err != nil {
			return nil, err
		}
		return func(list []any) []any {
			return trim(list, n, true)
		}, nil
	})
	mutate("$pop", func(arg any) (func([]any) []any, error) {
		n, err := count("$pop", arg)
		if err != nil {
			return nil, err
		}
		return func(list []any) []any {
			return trim(list, n, false)
		}, nil
	})
	mutate("$splice", func(arg any) (func([]any) []any, error) {
		args, ok := arg.([]any)
		if !ok || len(args) == 0 {
			return nil, compileError("$splice", "argument must be a list starting with the index")
		}
		start, ok := toInt(args[0])
		if !ok {
			return nil, compileError("$splice", "start must be an integer, got %v", args[0])
		}
		deleteCount := -1
		if len(args) > 1 {
			if deleteCount, ok = toInt(args[1]); !ok {
				return nil, compileError("$splice", "delete count must be an integer, got %v", args[1])
			}
		}
		var insert []any
		if len(args) > 2 {
			insert = data.Clone(args[2:]).([]any)
		}
		return func(list []any) []any {
			return splice(list, start, deleteCount, insert)
		}, nil
	})
	return t
}

// trim removes n elements from the front (or back) of list. A negative n
// removes from the opposite end.
func trim(list []any, n int, front bool) []any {
	if n < 0 {
		n, front = -n, !front
	}
	n = min(n, len(list))
	if front {
		return list[n:]
	}
	return list[:len(list)-n]
}

// splice removes deleteCount elements starting at start and inserts items in
// their place. A negative start counts from the end; a negative deleteCount
// removes every element after start.
func splice(list []any, start, deleteCount int, insert []any) []any {
	if start < 0 {
		start = max(len(list)+start, 0)
	}
	start = min(start, len(list))
	if deleteCount < 0 || start+deleteCount > len(list) {
		deleteCount = len(list) - start
	}
	res := make([]any, 0, len(list)-deleteCount+len(insert))
	res = append(res, list[:start]...)
	res = append(res, insert...)
	return append(res, list[start+deleteCount:]...)
}

func joinPath(parts ...string) string {
	res := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if res != "" {
			res += "."
		}
		res += p
	}
	return res
}
