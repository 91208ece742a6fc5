package engine

import (
	"sync"

	"github.com/millbrook-cnc/shopflow/internal/events"
	"gorm.io/gorm"
)

// Engine is the bin allocation and workflow state core. All scan
// operations run through it; each one is a single database transaction
// followed by fire-and-forget event publication.
type Engine struct {
	db   *gorm.DB
	sink events.Sink

	// Per-rack serialization of placement selection and commit, so two
	// concurrent sort scans cannot be handed the same bin slot.
	rackLocks sync.Map // rack ID -> *sync.Mutex
}

// New creates an engine bound to a database and an event sink. Pass
// events.NopSink{} when no subscriber is wired.
func New(db *gorm.DB, sink events.Sink) *Engine {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Engine{db: db, sink: sink}
}

// DB exposes the underlying handle for read-only collaborator queries
func (e *Engine) DB() *gorm.DB {
	return e.db
}

func (e *Engine) lockRack(rackID uint) *sync.Mutex {
	v, _ := e.rackLocks.LoadOrStore(rackID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// publish sends committed events to the sink. Called only after the
// owning transaction has committed.
func (e *Engine) publish(evs []events.Event) {
	for _, ev := range evs {
		e.sink.Publish(ev)
	}
}
