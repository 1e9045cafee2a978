package domain

import (
	"errors"
	"fmt"
)

// Kind classifies the errors returned by collection operations.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindIDUndefined
	KindIDExist
	KindIDNotExist
	KindValidation
	KindQueryCompile
	KindPopulation
)

func (k Kind) String() string {
	switch k {
	case KindIDUndefined:
		return "ID_UNDEFINED"
	case KindIDExist:
		return "ID_EXIST"
	case KindIDNotExist:
		return "ID_NOT_EXIST"
	case KindValidation:
		return "VALIDATION"
	case KindQueryCompile:
		return "QUERY_COMPILE"
	case KindPopulation:
		return "POPULATION"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrIDUndefined is returned when a record has no identifier.
	ErrIDUndefined = errors.New("ID is not defined")
	// ErrSchemaFrozen is returned when a path is declared on a schema
	// already bound to a collection.
	ErrSchemaFrozen = errors.New("schema is frozen")
	// ErrNoRegistry is returned when population is requested on a
	// collection created without a registry.
	ErrNoRegistry = errors.New("collection has no registry")
)

// ErrIDExist is returned when inserting a record whose id is already stored.
type ErrIDExist struct {
	ID any
}

func (e ErrIDExist) Error() string {
	return fmt.Sprintf("ID %q has been used", fmt.Sprint(e.ID))
}

// ErrIDNotExist is returned when a record is addressed by an id that is not
// stored.
type ErrIDNotExist struct {
	ID any
}

func (e ErrIDNotExist) Error() string {
	return fmt.Sprintf("ID %q does not exist", fmt.Sprint(e.ID))
}

// ErrValidation is returned when a value does not satisfy its field type.
type ErrValidation struct {
	Path   string
	Reason string
}

func (e ErrValidation) Error() string {
	if e.Path == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("`%s` %s", e.Path, e.Reason)
}

// ErrQueryCompile is returned when a query, sort or update expression is
// malformed.
type ErrQueryCompile struct {
	Operator string
	Reason   string
}

func (e ErrQueryCompile) Error() string {
	if e.Operator == "" {
		return "invalid expression: " + e.Reason
	}
	return fmt.Sprintf("invalid operator %s: %s", e.Operator, e.Reason)
}

// ErrPopulation is returned when a population expression cannot be resolved.
type ErrPopulation struct {
	Path   string
	Model  string
	Reason string
}

func (e ErrPopulation) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("cannot populate %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("cannot populate %q from %q: %s", e.Path, e.Model, e.Reason)
}

// ErrUnknownMethod is returned when calling a static or method that was never
// registered.
type ErrUnknownMethod struct {
	Name string
}

func (e ErrUnknownMethod) Error() string {
	return fmt.Sprintf("method %q is not defined", e.Name)
}

// KindOf classifies err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrIDUndefined) {
		return KindIDUndefined
	}
	var (
		idExist    ErrIDExist
		idNotExist ErrIDNotExist
		validation ErrValidation
		compile    ErrQueryCompile
		population ErrPopulation
	)
	switch {
	case errors.As(err, &idExist):
		return KindIDExist
	case errors.As(err, &idNotExist):
		return KindIDNotExist
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &compile):
		return KindQueryCompile
	case errors.As(err, &population):
		return KindPopulation
	default:
		return KindUnknown
	}
}
