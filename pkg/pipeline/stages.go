package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/capsid/pkg/domain"
)

// readExtensions are the recognized FASTQ suffixes, compound forms first so
// they match before the bare ones. The same list drives trimmed-name
// derivation and raw-read exclusion during packaging.
var readExtensions = []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"}

// readBase strips the read extension from a path's base name, mirroring how
// the trimmer derives its output names.
func readBase(path string) string {
	name := filepath.Base(path)
	for _, ext := range readExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// assemblyDir and assemblyFasta locate the assembler output inside a run's
// output directory.
func assemblyDir(p *domain.Params) string   { return filepath.Join(p.OutDir, "assembly") }
func assemblyFasta(p *domain.Params) string { return filepath.Join(assemblyDir(p), "assembly.fasta") }

// DefaultStages builds the standard five-stage phage pipeline over cfg:
// read QC, trimming, assembly, assembly QC, annotation. Only assembly is
// fatal; everything downstream degrades to warnings so partial results
// still reach the artifact.
func DefaultStages(cfg Config) []domain.Stage {
	return []domain.Stage{
		{
			Name:    "FastQC",
			Applies: func(p *domain.Params) bool { return p.RunFastQC },
			Resolve: func(p *domain.Params) (domain.Command, error) {
				args := []string{"-o", p.OutDir, p.R1}
				if p.R2 != "" {
					args = append(args, p.R2)
				}
				return domain.Command{Program: cfg.Tool("fastqc"), Args: args}, nil
			},
		},
		{
			Name:    "TrimGalore",
			Applies: func(p *domain.Params) bool { return p.RunTrimming },
			Resolve: func(p *domain.Params) (domain.Command, error) {
				if p.Paired() {
					return domain.Command{
						Program: cfg.Tool("trim_galore"),
						Args:    []string{"--paired", "--output_dir", p.OutDir, p.R1, p.R2},
					}, nil
				}
				return domain.Command{
					Program: cfg.Tool("trim_galore"),
					Args:    []string{"--output_dir", p.OutDir, p.R1},
				}, nil
			},
			After: func(p *domain.Params) error {
				// Later stages must read the trimmed files, not the originals.
				if p.Paired() {
					base1, base2 := readBase(p.R1), readBase(p.R2)
					p.R1 = filepath.Join(p.OutDir, base1+"_val_1.fq.gz")
					p.R2 = filepath.Join(p.OutDir, base2+"_val_2.fq.gz")
				} else {
					p.R1 = filepath.Join(p.OutDir, readBase(p.R1)+"_trimmed.fq.gz")
				}
				return nil
			},
		},
		{
			Name:  "Assembly (Unicycler)",
			Fatal: true,
			Resolve: func(p *domain.Params) (domain.Command, error) {
				out := assemblyDir(p)
				switch {
				case p.Paired():
					return domain.Command{
						Program: cfg.Tool("unicycler"),
						Args:    []string{"-1", p.R1, "-2", p.R2, "-o", out, "--mode", p.AssemblyMode},
					}, nil
				case p.R1 != "":
					return domain.Command{
						Program: cfg.Tool("unicycler"),
						Args:    []string{"-s", p.R1, "-o", out, "--mode", p.AssemblyMode},
					}, nil
				default:
					return domain.Command{}, fmt.Errorf("no valid short-read inputs for assembly")
				}
			},
			After: func(p *domain.Params) error {
				// A zero exit without the FASTA still means no genome to work with.
				fasta := assemblyFasta(p)
				if _, err := os.Stat(fasta); err != nil {
					return fmt.Errorf("assembly file not found at %s", fasta)
				}
				return nil
			},
		},
		{
			Name:    "QUAST",
			Applies: func(p *domain.Params) bool { return p.RunQuast },
			Resolve: func(p *domain.Params) (domain.Command, error) {
				return domain.Command{
					Program: cfg.Tool("quast"),
					Args:    []string{assemblyFasta(p), "-o", filepath.Join(p.OutDir, "quast")},
				}, nil
			},
		},
		{
			Name:    "Pharokka",
			Applies: func(p *domain.Params) bool { return p.RunPharokka },
			Resolve: func(p *domain.Params) (domain.Command, error) {
				threads := cfg.Annotation.Threads
				if threads <= 0 {
					threads = DefaultConfig().Annotation.Threads
				}
				return domain.Command{
					Program: cfg.Tool("pharokka"),
					Args: []string{
						"-i", assemblyFasta(p),
						"-o", filepath.Join(p.OutDir, "pharokka"),
						"-t", strconv.Itoa(threads),
						"-f",
						"-d", cfg.DatabaseDir(),
					},
				}, nil
			},
			FailureHint: "Check if databases are installed (run: pharokka_database.py --install)",
		},
	}
}
