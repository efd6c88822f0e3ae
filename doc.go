/*
Package capsid is a pipeline engine for assembling and annotating phage genomes from raw sequencing reads.

It drives a fixed chain of bioinformatics tools (quality control, trimming, assembly, assembly QC, annotation) as external processes, aggregates their merged output into a single offset-addressable log, and packages the results into a downloadable archive.

# Concept

Capsid separates the pipeline (what to execute, in which order, with which arguments) from the controller (background execution, status tracking, log polling) and from the hosts that embed it. The engine manages process lifecycles, incremental log flushing, and artifact packaging, while your application ("Host") decides how to present the log: poll it over HTTP, subscribe to push events, or stream it straight to a terminal. This Hexagonal Architecture allows Capsid to be embedded in any interface: CLI, HTTP server, or AI agent infrastructure.

# Key Features

  - Single Log Stream: stdout and stderr of every tool are merged, decoded incrementally, and appended to one growing log that clients read by offset.
  - Edge-Triggered Control: runs, maintenance actions, and termination are requests that take effect once; a busy engine rejects new work instead of queueing it.
  - Graceful Termination: aborting a run interrupts the active process, escalating to a kill only after a grace period.
  - Run History: every finished run and action is persisted through a pluggable store (in-memory or Redis).

# Usage

Initialize the engine, then either run synchronously via Runner or hand the Controller to an adapter.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/capsid"
	)

	func main() {
		// Initialize Engine with default settings
		eng, err := capsid.New()
		if err != nil {
			log.Fatal(err)
		}

		// One-shot run: stream the log to stdout and block until done
		runner := &capsid.Runner{Output: os.Stdout}
		params := map[string]any{
			"short_r1":    "reads_R1.fastq.gz",
			"output_name": "my_phage",
		}
		oc, err := runner.Run(context.Background(), eng, params)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("results: %s", oc.ArtifactPath)

		// Or background: request a run and poll the log by offset
		ctrl := eng.Controller()
		if _, err := ctrl.RequestRun(params); err != nil {
			log.Fatal(err)
		}
		offset := 0
		for {
			resp := ctrl.Poll(offset)
			os.Stdout.WriteString(resp.Content)
			offset = resp.NewOffset
			if resp.Status.Terminal() {
				break
			}
		}
	}
*/
package capsid
