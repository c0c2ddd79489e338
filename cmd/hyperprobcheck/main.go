// Command hyperprobcheck is the CLI front-end spec section 1 calls an
// "external collaborator": it wires the PRISM-subset MDP loader, the
// hyperproperty string parser, and the encoding-engine core together
// into a runnable program. None of the decision logic lives here; this
// package only parses flags, drives the pipeline, and renders results.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
