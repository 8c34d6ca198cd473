package model

// PatchRecord describes one installed hook.
type PatchRecord struct {
	Site     string     `yaml:"site"`
	Class    string     `yaml:"class"`
	Method   string     `yaml:"method"`
	Shape    Shape      `yaml:"shape"`
	Rank     Rank       `yaml:"rank"`
	Hook     HookSymbol `yaml:"hook"`
	Argument string     `yaml:"argument"`
}

// EmittedClass is a class written by the emitter after a pass.
type EmittedClass struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size"`
}

// Report is the outcome of a patch pass.
type Report struct {
	Game       GameInfo       `yaml:"game"`
	Mode       Mode           `yaml:"mode"`
	EntryClass string         `yaml:"entry_class"`
	Policy     string         `yaml:"policy"`
	Sites      []string       `yaml:"sites"`
	Records    []PatchRecord  `yaml:"records"`
	Emitted    []EmittedClass `yaml:"emitted"`
	// Skipped holds the reason a pass did nothing, empty otherwise.
	Skipped string `yaml:"skipped,omitempty"`
}

// ScanMatch is one landmark found while scanning a jar.
type ScanMatch struct {
	Site     string `yaml:"site"`
	Landmark string `yaml:"landmark"`
	Class    string `yaml:"class"`
	Method   string `yaml:"method"`
	Index    int    `yaml:"index"`
	Insn     string `yaml:"insn"`
}

// ClassEntry is a class available from a class source.
type ClassEntry struct {
	Name string
	Size int64
}

// Path represents a file system path.
type Path string
