package domain

// Params carries the inputs and tuning knobs for one run. The raw host
// payload is a loose map; it is validated against the parameter schema and
// decoded into this struct before any stage executes.
type Params struct {
	// OutputName is the project prefix for the output directory and the
	// packaged artifact.
	OutputName string `mapstructure:"output_name" json:"output_name"`

	// ShortR1 is the forward short-read FASTQ file. Required.
	ShortR1 string `mapstructure:"short_r1" json:"short_r1"`

	// ShortR2 is the reverse short-read FASTQ file. Optional; when set the
	// run is treated as paired-end.
	ShortR2 string `mapstructure:"short_r2" json:"short_r2,omitempty"`

	// RunFastQC toggles the read quality-control stage.
	RunFastQC bool `mapstructure:"run_fastqc" json:"run_fastqc"`

	// RunTrimming toggles adapter removal and quality trimming.
	RunTrimming bool `mapstructure:"run_trimming" json:"run_trimming"`

	// AssemblyMode selects the assembler bridging mode: normal, bold or
	// conservative.
	AssemblyMode string `mapstructure:"unicycler_mode" json:"unicycler_mode"`

	// RunQuast toggles assembly quality evaluation.
	RunQuast bool `mapstructure:"run_quast" json:"run_quast"`

	// RunPharokka toggles phage genome annotation.
	RunPharokka bool `mapstructure:"run_pharokka" json:"run_pharokka"`

	// Working state resolved while a run executes. R1/R2 start as the
	// validated absolute input paths; later stages may rewire them (trimming
	// swaps in the trimmed read files before assembly).
	R1     string `mapstructure:"-" json:"-"`
	R2     string `mapstructure:"-" json:"-"`
	OutDir string `mapstructure:"-" json:"-"`
}

// Paired reports whether the run currently has both read files.
func (p *Params) Paired() bool {
	return p.R1 != "" && p.R2 != ""
}
