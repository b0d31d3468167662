// Package emit provides observability events for graph runs.
package emit

// Emitter receives observability events from graph runs.
//
// Emit is called concurrently by the nodes of a layer, so implementations
// must be thread-safe. They should not block the traversal and must not
// panic.
type Emitter interface {
	Emit(event Event)
}

// MultiEmitter fans each event out to several emitters in order.
//
//	em := emit.MultiEmitter{emit.NewLogEmitter(os.Stderr, false), emit.NewOTelEmitter(tracer)}
type MultiEmitter []Emitter

// Emit forwards event to every non-nil emitter.
func (m MultiEmitter) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
