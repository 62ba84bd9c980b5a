package column

// Origin tells where a column comes from.
type Origin string

// Column origins.
const (
	System    Origin = "system"
	Attribute Origin = "attribute"
)

// Names of the permanent system columns.
const (
	ElementName = "element"
	ScoreName   = "score"
)

// Config describes one table column.
type Config struct {
	name    string
	visible bool
	origin  Origin
}

// New creates a column config.
func New(name string, visible bool, origin Origin) Config {
	return Config{name: name, visible: visible, origin: origin}
}

// Name returns the column name.
func (c Config) Name() string { return c.name }

// Visible reports whether the column is shown.
func (c Config) Visible() bool { return c.visible }

// Origin returns the column origin.
func (c Config) Origin() Origin { return c.origin }

// IsSystem reports whether the column is a permanent system column.
func (c Config) IsSystem() bool { return c.origin == System }

// WithVisible returns a copy with the given visibility.
func (c Config) WithVisible(visible bool) Config {
	c.visible = visible
	return c
}

// SystemColumns returns the permanent leading columns.
func SystemColumns() []Config {
	return []Config{
		New(ElementName, true, System),
		New(ScoreName, true, System),
	}
}

// Index returns the position of the column with origin and name in cols,
// or -1. An attribute may share its name with a system column.
func Index(cols []Config, origin Origin, name string) int {
	for i, c := range cols {
		if c.origin == origin && c.name == name {
			return i
		}
	}
	return -1
}
