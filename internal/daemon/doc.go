// Package daemon wires the long-running service together: config manager,
// logging, event bus, run history, and the scheduling engine. Jobs declared
// in the config file run shell commands; edits to the file are applied live
// without a restart.
package daemon
