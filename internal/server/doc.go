// Package server exposes timetable reconstruction over MCP (Model Context
// Protocol), so an assistant can parse a scanned page, look at the grid it
// produced and adjust the configuration until the cells line up.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Reconstruction:
//   - timetable_parse: Parse an OCR artifact into a timetable (JSON, Markdown or HTML)
//   - timetable_cells: Lay out the empty grid for an origin
//   - timetable_locate_anchor: Find the anchor and the origin it implies
//
// Visual checks:
//   - timetable_overlay: Draw the grid over the page image
//   - timetable_crop_cell: Crop one parsed cell out of the page
//   - timetable_image_info: Page image size and format
//
// OCR:
//   - timetable_ocr: Run Tesseract and return native fragments
//
// Configuration:
//   - timetable_default_config: Default configuration as YAML
//
// Every tool that reads a template takes an optional config_path. Without it
// the configuration the server was started with is used.
//
// # Image Caching
//
// Page images are decoded once and cached by path for the lifetime of the
// process; overlay, crop and OCR calls on the same page share the decode.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, ocr.NewRecognizer(""), version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
