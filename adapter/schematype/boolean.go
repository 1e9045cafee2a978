package schematype

import (
	"strings"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Boolean stores true or false.
type Boolean struct {
	table
}

// NewBoolean returns a new Boolean type.
func NewBoolean() *Boolean {
	b := &Boolean{table: newTable()}
	b.merge(baseTable(b.equal, b.castArg))
	return b
}

// Name implements [domain.SchemaType].
func (b *Boolean) Name() string { return "Boolean" }

// CastIn implements [domain.SchemaType]. The strings "false", "0" and "" are
// false, other strings are true. Numbers are true when non-zero.
func (b *Boolean) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	switch t := value.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.TrimSpace(strings.ToLower(t)) {
		case "false", "0", "":
			return false, nil
		}
		return true, nil
	}
	if f, ok := toFloat(value); ok {
		return f != 0, nil
	}
	return nil, invalid("is not a boolean")
}

// CastOut implements [domain.SchemaType].
func (b *Boolean) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (b *Boolean) Compare(x, y any) int {
	return defaultComparer.Compare(x, y)
}

func (b *Boolean) equal(value, arg any) bool {
	return value == arg
}

func (b *Boolean) castArg(arg any) any {
	if v, err := b.CastIn(arg, true, nil); err == nil {
		return v
	}
	return arg
}
