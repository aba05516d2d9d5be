package overlapjoin

import "go.llib.dev/frameless/port/option"

type Option = option.Option[Config]

type Config struct {
	// Strict makes the Sweep verify the Begin order of both inputs while it pulls them.
	Strict bool
	// WindowHint is the initial capacity of the window buffers.
	WindowHint int
}

func (c *Config) Init() {
	c.WindowHint = 16
}

// Strict enables the ordering check of the inputs.
// On the first Begin that moves backward, the Sweep stops and its Err reports ErrPreconditionViolated.
func Strict() Option {
	return option.Func[Config](func(c *Config) { c.Strict = true })
}

// WindowHint presizes the window buffers, useful when many intervals are expected to be open at once.
func WindowHint(n int) Option {
	return option.Func[Config](func(c *Config) {
		if 0 <= n {
			c.WindowHint = n
		}
	})
}

func toConfig(opts []Option) Config {
	c := option.Use[Config](opts)
	if c.WindowHint < 0 {
		c.WindowHint = 0
	}
	return c
}
