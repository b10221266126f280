// Package main hosts the doro CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the dorod daemon, falling back to opening the stores
// directly when no daemon is running. It centralizes configuration
// resolution and socket discovery so subcommands can focus on user
// experience instead of wiring.
package main
