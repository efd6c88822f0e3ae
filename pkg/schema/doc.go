// Package schema defines the pipeline parameter schema: typed parameter
// declarations with labels, defaults, options and categories, plus the
// validation machinery that checks an inbound parameter map against them.
//
// Hosts fetch the parameter list to render their configuration UI; the
// engine validates and defaults every run request against the same list, so
// both sides agree on what a well-formed request looks like.
//
// Basic usage:
//
//	defs := []schema.Parameter{
//	    {Name: "short_r1", Type: "text", Label: "Short Reads R1"},
//	    {Name: "run_quast", Type: "bool", Default: true},
//	    {Name: "unicycler_mode", Type: "select", Options: []string{"normal", "bold", "conservative"}, Default: "normal"},
//	}
//
//	merged := schema.ApplyDefaults(defs, request)
//	if err := schema.Validate(defs, merged); err != nil {
//	    for _, v := range schema.ValidationErrors(err) {
//	        // render per-field messages
//	    }
//	}
//
// The type system is open: Custom builds validators for domain-specific
// value shapes. This package has zero dependencies beyond the standard
// library and can be embedded in larger systems.
package schema
