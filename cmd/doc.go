// Package cmd implements the command-line interface for scheduleai.
//
// This package provides the following commands:
//   - schedule: Print a user's calendar schedule for today or a given date
//   - auth: Run the interactive authorization flow for a user
//   - revoke: Revoke a user's stored calendar credentials
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//
// The schedule command is the default command when no subcommand is specified.
package cmd
