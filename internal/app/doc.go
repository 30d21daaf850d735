// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the plan, build the
// execution graph, execute it and report every chain. It is decoupled from
// any specific entrypoint like a CLI.
package app
