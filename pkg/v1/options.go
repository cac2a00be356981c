package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	root      string
	dimension int
	mock      bool
}

// WithRoot sets the insights root directory instead of the default.
func WithRoot(root string) Option {
	return func(c *clientConfig) {
		c.root = root
	}
}

// WithDimension sets the embedding dimension.
func WithDimension(dim int) Option {
	return func(c *clientConfig) {
		c.dimension = dim
	}
}

// WithMockEmbedder uses the in-process deterministic embedder instead of
// the daemon. Intended for tests and offline use.
func WithMockEmbedder() Option {
	return func(c *clientConfig) {
		c.mock = true
	}
}
