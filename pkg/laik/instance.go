package laik

import (
	"github.com/laik-go/laik/pkg/backend"
)

// Instance is the process-wide handle applications hold: it binds a
// Backend to a cfg and lazily initializes the builtin partitioner
// singletons (spec §5).
type Instance struct {
	backend backend.Backend
	cfg     cfg
	pool    bufPool
}

// NewInstance wires a Backend into a new Instance, applying opts over
// the defaults.
func NewInstance(be backend.Backend, opts ...Opt) *Instance {
	c := defaultCfg()
	for _, o := range opts {
		o.apply(&c)
	}
	inst := &Instance{backend: be, cfg: c, pool: newBufPool(c.bufferPoolSize)}
	initBuiltinPartitioners()
	return inst
}

// bufPool returns the scratch buffer pool transfer execution draws
// pack/send buffers from.
func (i *Instance) bufPool() bufPool { return i.pool }

// World returns the backend.Group containing every worker the backend
// knows about.
func (i *Instance) World() backend.Group { return i.backend.World() }

// Finalize releases the backend's transport resources.
func (i *Instance) Finalize() error { return i.backend.Finalize() }

func (i *Instance) logf(level LogLevel, msg string, keyvals ...interface{}) {
	if i.cfg.logger.Level() >= level {
		i.cfg.logger.Log(level, msg, keyvals...)
	}
}
