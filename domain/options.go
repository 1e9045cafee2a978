package domain

// WithFindSkip sets the number of documents to skip in query results.
func WithFindSkip(s int) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = s
	}
}

// WithFindLimit sets the maximum number of documents to return. Zero means no
// limit.
func WithFindLimit(l int) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = l
	}
}

// WithFindLean makes reads return plain records instead of live documents.
func WithFindLean(l bool) FindOption {
	return func(fo *FindOptions) {
		fo.Lean = l
	}
}

// FindOption configures query behavior through the functional options pattern.
type FindOption func(*FindOptions)

// FindOptions contains parameters for customizing query execution.
type FindOptions struct {
	// Skip specifies the number of documents to skip.
	Skip int
	// Limit specifies the maximum number of documents to return.
	Limit int
	// Lean returns plain records instead of live documents.
	Lean bool
}

// NewFindOptions applies opts over the zero value.
func NewFindOptions(opts ...FindOption) FindOptions {
	var fo FindOptions
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}

// PathOption configures a schema path.
type PathOption func(*PathOptions)

// WithRequired marks a path as required.
func WithRequired(r bool) PathOption {
	return func(po *PathOptions) {
		po.Required = r
	}
}

// WithDefault sets the default value of a path. A func() any is called
// every time a default is needed.
func WithDefault(v any) PathOption {
	return func(po *PathOptions) {
		po.Default = v
	}
}

// NewPathOptions applies opts over the zero value.
func NewPathOptions(opts ...PathOption) PathOptions {
	var po PathOptions
	for _, opt := range opts {
		opt(&po)
	}
	return po
}
