package laik

// cfg holds every tunable of an Instance. It is built up by applying
// Opt values over defaultCfg, the same functional-options shape the
// teacher's Client config uses.
type cfg struct {
	logger         Logger
	hooks          hookSet
	bufferPoolSize int
	layoutFactory  LayoutFactory
	compressor     Compressor
	compressMin    int
}

func defaultCfg() cfg {
	return cfg{
		logger:         nopLogger{},
		bufferPoolSize: 1 << 10,
		layoutFactory:  DenseVector1DFactory,
		compressor:     SnappyCompressor{},
		compressMin:    4096,
	}
}

// Opt configures an Instance at construction time.
type Opt interface {
	apply(*cfg)
}

type opt func(*cfg)

func (o opt) apply(c *cfg) { o(c) }

// WithLogger sets the Logger an Instance and everything it creates
// will log through. The default discards everything.
func WithLogger(l Logger) Opt {
	return opt(func(c *cfg) { c.logger = l })
}

// WithHooks registers one or more Hooks, fired in registration order.
func WithHooks(hooks ...Hook) Opt {
	return opt(func(c *cfg) { c.hooks = append(c.hooks, hooks...) })
}

// WithBufferPoolSize sets the initial capacity of buffers drawn from
// the pack/transfer buffer pool (bufpool.go).
func WithBufferPoolSize(n int) Opt {
	return opt(func(c *cfg) {
		if n > 0 {
			c.bufferPoolSize = n
		}
	})
}

// WithLayoutFactory overrides the default layout chosen for a Data
// container that does not request one explicitly (spec §6: "Layout
// choice: containers accept an optional layout factory; default is
// dense 1-D for 1-D spaces.").
func WithLayoutFactory(f LayoutFactory) Opt {
	return opt(func(c *cfg) { c.layoutFactory = f })
}

// WithCompressor overrides the codec used to compress transfer
// payloads above WithCompressMin bytes. The default is snappy.
func WithCompressor(c Compressor) Opt {
	return opt(func(cf *cfg) { cf.compressor = c })
}

// WithCompressMin sets the minimum packed-payload size, in bytes,
// before the compressor is engaged; below it payloads are sent raw to
// avoid paying compression overhead on tiny transfers.
func WithCompressMin(n int) Opt {
	return opt(func(c *cfg) {
		if n >= 0 {
			c.compressMin = n
		}
	})
}

