// Command phaser is the CLI front-end for the audit-automation engine
// implemented under internal/: manifest capture/diff, contract
// authoring and checking, sandboxed and branch-per-phase dry runs, and
// the enforcement gate.
package main

func main() {
	Execute()
}
