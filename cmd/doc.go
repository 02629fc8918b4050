// Package cmd implements the mqipc command-line interface. The root command runs a
// complete single-message exchange over a message queue; the subcommands expose
// the sending side and tooling to find and remove queues left behind.
//
// Every flag can also be set through an MQIPC_* environment variable or a .env file.
//
// See mqipc --help for a list of all commands.
package cmd
