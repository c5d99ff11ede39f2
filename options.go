package wheelsieve

const (
	// defaultContextCheckInterval is how many primes WriteTable emits between
	// context cancellation checks.
	defaultContextCheckInterval = 10000

	// defaultFanOutBuffer is the channel capacity between the FanOut
	// producer and its workers.
	defaultFanOutBuffer = 1024
)

// TableOption is a functional option for configuring WriteTable.
type TableOption func(*tableConfig)

// FanOutOption is a functional option for configuring FanOut.
type FanOutOption func(*fanOutConfig)

type tableConfig struct {
	userMetadata         []byte
	contextCheckInterval int
}

func defaultTableConfig() *tableConfig {
	return &tableConfig{
		contextCheckInterval: defaultContextCheckInterval,
	}
}

// WithUserMetadata stores variable-length user metadata in the table file.
// The metadata is copied, so the caller can reuse the slice after this call.
func WithUserMetadata(data []byte) TableOption {
	return func(c *tableConfig) {
		c.userMetadata = append([]byte(nil), data...) // Copy slice
	}
}

// WithContextCheckInterval sets how many primes are written between context
// checks. Values below 1 are treated as 1.
func WithContextCheckInterval(n int) TableOption {
	return func(c *tableConfig) {
		c.contextCheckInterval = max(n, 1)
	}
}

type fanOutConfig struct {
	buffer int
}

func defaultFanOutConfig() *fanOutConfig {
	return &fanOutConfig{buffer: defaultFanOutBuffer}
}

// WithBuffer sets the producer-to-worker channel capacity. 0 makes the
// channel unbuffered.
func WithBuffer(n int) FanOutOption {
	return func(c *fanOutConfig) {
		c.buffer = max(n, 0)
	}
}
