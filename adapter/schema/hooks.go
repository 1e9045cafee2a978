package schema

import (
	"context"
	"fmt"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ErrUnknownHookEvent is returned when registering a hook for an event other
// than save or remove.
type ErrUnknownHookEvent struct {
	Event domain.HookEvent
}

func (e ErrUnknownHookEvent) Error() string {
	return fmt.Sprintf("unknown hook event %q", e.Event)
}

func checkEvent(event domain.HookEvent) error {
	switch event {
	case domain.HookSave, domain.HookRemove:
		return nil
	}
	return ErrUnknownHookEvent{Event: event}
}

// Pre registers a hook executed before the event mutates the store. Hooks run
// in registration order and the first failure aborts the operation.
func (s *Schema) Pre(event domain.HookEvent, hook domain.Hook) error {
	if err := s.register(event); err != nil {
		return err
	}
	s.pre[event] = append(s.pre[event], hook)
	return nil
}

// Post registers a hook executed after the event is committed.
func (s *Schema) Post(event domain.HookEvent, hook domain.Hook) error {
	if err := s.register(event); err != nil {
		return err
	}
	s.post[event] = append(s.post[event], hook)
	return nil
}

func (s *Schema) register(event domain.HookEvent) error {
	if s.frozen.Load() {
		return domain.ErrSchemaFrozen
	}
	return checkEvent(event)
}

// RunPre executes the pre hooks of event in order.
func (s *Schema) RunPre(ctx context.Context, event domain.HookEvent, doc domain.Document) error {
	return runHooks(ctx, "pre", event, s.pre[event], doc)
}

// RunPost executes the post hooks of event in order.
func (s *Schema) RunPost(ctx context.Context, event domain.HookEvent, doc domain.Document) error {
	return runHooks(ctx, "post", event, s.post[event], doc)
}

func runHooks(ctx context.Context, when string, event domain.HookEvent, hooks []domain.Hook, doc domain.Document) error {
	for _, hook := range hooks {
		if err := hook(ctx, doc); err != nil {
			return fmt.Errorf("%s %s hook: %w", when, event, err)
		}
	}
	return nil
}

// Static registers a collection-level method.
func (s *Schema) Static(name string, fn domain.Static) error {
	if s.frozen.Load() {
		return domain.ErrSchemaFrozen
	}
	s.statics[name] = fn
	return nil
}

// Method registers a document-level method.
func (s *Schema) Method(name string, fn domain.Method) error {
	if s.frozen.Load() {
		return domain.ErrSchemaFrozen
	}
	s.methods[name] = fn
	return nil
}

// LookupStatic returns the collection-level method registered as name.
func (s *Schema) LookupStatic(name string) (domain.Static, bool) {
	fn, ok := s.statics[name]
	return fn, ok
}

// LookupMethod returns the document-level method registered as name.
func (s *Schema) LookupMethod(name string) (domain.Method, bool) {
	fn, ok := s.methods[name]
	return fn, ok
}
