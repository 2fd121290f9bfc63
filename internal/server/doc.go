// Package server implements the MCP (Model Context Protocol) server for the
// screenshot prefilter.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Analysis:
//   - prefilter_analyze: Allow/block verdict for one screenshot
//   - prefilter_analyze_batch: Sequential verdicts with progress notifications
//
// Mode:
//   - prefilter_get_mode: Persisted mode and whether analysis is enabled
//   - prefilter_set_mode: Persist off, light or deep
//
// Diagnostics:
//   - prefilter_status: Backend initialization state and detectable categories
//   - prefilter_card_signals: Heuristic signal breakdown for one image
//
// Screenshots are passed either as a file path or inline as base64.
//
// # Error Handling
//
// Analysis never fails: a screenshot that cannot be read or decoded is
// reported as allowed. Tool errors (bad arguments, unknown tool, invalid mode)
// are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Progress
//
// When a prefilter_analyze_batch call carries params._meta.progressToken, a
// notifications/progress message is written after each screenshot with
// progress counting from 1 to total.
package server
