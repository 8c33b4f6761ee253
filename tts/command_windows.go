package tts

// CommandEngine is not available on Windows.
type CommandEngine struct{ Noop }

// NewCommandEngine always fails on Windows.
func NewCommandEngine() (*CommandEngine, error) {
	return nil, ErrUnsupported
}
