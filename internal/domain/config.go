package domain

// Defaults mirrored from the vector set module.
const (
	// DefaultCount is the number of elements VSIM returns without COUNT.
	DefaultCount = 10
	// DefaultSearchEF is the exploration factor VSIM uses without EF.
	DefaultSearchEF = 100
	// MaxCount caps the number of results a single query may ask for.
	MaxCount = 1000
)

// BrowserConfig holds the initial display settings of a browser session.
type BrowserConfig struct {
	ShowAttributes bool
	FilteredOnly   bool
	DefaultCount   int
	MaxCount       int
}

// DefaultBrowserConfig returns the settings used when nothing is configured.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		ShowAttributes: true,
		FilteredOnly:   false,
		DefaultCount:   DefaultCount,
		MaxCount:       MaxCount,
	}
}
