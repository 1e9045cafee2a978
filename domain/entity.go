package domain

// EventType names a collection event.
type EventType string

// Collection events.
const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventRemove EventType = "remove"
)

// Event is emitted by a collection after a committed write.
type Event struct {
	Type  EventType
	Model string
	Doc   Document
}

// HookEvent names the lifecycle moment a [Hook] is attached to.
type HookEvent string

// Hook events.
const (
	HookSave   HookEvent = "save"
	HookRemove HookEvent = "remove"
)

// Sort represents an ordered list of fields which should be used to sort query
// results, applied in sequence.
type Sort = []SortName

// SortName represents a single field and the order which should be used to sort
// it. A positive Order value means ascending order and a negative value means
// descending order.
type SortName struct {
	Key   string
	Order int64
}

// PopulateOptions describes how a reference path is replaced by the records
// it points to. Model defaults to the collection named by the path type.
type PopulateOptions struct {
	Path  string
	Model string
	Match any
	Sort  any
	Limit int
	Skip  int
}

// PopulateDirective is a compiled [PopulateOptions]: the target collection is
// resolved and the sort spec normalized.
type PopulateDirective struct {
	Path  string
	Model string
	Match any
	Sort  Sort
	Limit int
	Skip  int
	// Array is true when the path holds a list of references.
	Array bool
}

// PathOptions holds the options of a schema path.
type PathOptions struct {
	// Required makes saving fail when the path holds no value.
	Required bool
	// Default is assigned when the path holds no value. A func() any is
	// called every time a default is needed.
	Default any
}
