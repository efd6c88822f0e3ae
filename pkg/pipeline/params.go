package pipeline

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/schema"
)

// DefaultProjectName names the output directory when the host provides none.
const DefaultProjectName = "phage_project"

// Definitions declares every parameter a host can set for a run, grouped by
// UI category. Button parameters carry no value; their names double as
// maintenance action names, so a host button click maps straight onto an
// action request.
func Definitions() []schema.Parameter {
	return []schema.Parameter{
		{Name: ActionInstallDatabases, Type: "button", Label: "Install Pharokka DB", Description: "Download and index Pharokka databases (this can take 10-15 mins, but only needs to be run once per session)", Category: "Setup"},
		{Name: ActionRepairEnvironment, Type: "button", Label: "Repair Pharokka Env", Description: "Apply known compatibility fixes to the installed Pharokka scripts (safe to run repeatedly)", Category: "Setup"},

		{Name: "output_name", Type: "text", Label: "Project Name", Description: "Prefix for output files", Default: DefaultProjectName, Category: "Data & Output"},
		{Name: "short_r1", Type: "text", Label: "Short Reads R1", Description: "Path or upload for FASTQ R1 (Forward)", Category: "Data & Output"},
		{Name: "short_r2", Type: "text", Label: "Short Reads R2", Description: "Path or upload for FASTQ R2 (Reverse)", Category: "Data & Output"},

		{Name: "run_fastqc", Type: "bool", Label: "Run FastQC", Description: "Perform quality control check", Default: true, Category: "Preprocessing"},
		{Name: "run_trimming", Type: "bool", Label: "Run TrimGalore", Description: "Adapter removal and quality trimming", Default: true, Category: "Preprocessing"},

		{Name: "unicycler_mode", Type: "select", Label: "Assembly Mode", Description: "Unicycler bridging mode", Options: []string{"normal", "bold", "conservative"}, Default: "normal", Category: "Assembly"},

		{Name: "run_quast", Type: "bool", Label: "Run QUAST", Description: "Evaluate assembly quality", Default: true, Category: "Quality Check"},

		{Name: "run_pharokka", Type: "bool", Label: "Run Pharokka", Description: "Phage genome annotation", Default: true, Category: "Annotation"},
	}
}

// DecodeParams validates a raw host payload against the parameter schema and
// decodes it into typed run parameters. Declared defaults fill in anything
// the host left unset.
func DecodeParams(raw map[string]any) (*domain.Params, error) {
	defs := Definitions()
	merged := schema.ApplyDefaults(defs, raw)
	if err := schema.Validate(defs, merged); err != nil {
		return nil, err
	}

	var p domain.Params
	if err := mapstructure.Decode(merged, &p); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if p.OutputName == "" {
		p.OutputName = DefaultProjectName
	}
	return &p, nil
}
