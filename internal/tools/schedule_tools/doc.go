// Package schedule_tools registers the MCP tools for per-user calendar
// access: fetching formatted schedules, listing raw events, and revoking
// stored credentials.
package schedule_tools
