// Package server exposes the image converter over MCP and HTTP.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Nothing but protocol messages may be written to stdout. Logs go to stderr.
//
// # Available Tools
//
//   - image_convert: resize, crop, pad, adjust and re-encode an image
//   - image_identify: header metadata without decoding pixels
//   - image_quantize_colors: dominant colors, most frequent first
//   - image_get_pixels: 16-bit pixel readback of a rectangle
//   - image_sample_color: color at one or more coordinates
//   - image_composite: overlay one image on another
//   - image_version: server, format and library versions
//
// Every image argument is either a file path ("path") or inline base64
// data ("src_base64"). Image results come back base64-encoded with their
// MIME type unless "output_path" names a file to write instead.
//
// # HTTP
//
// Router serves the same operations over HTTP with chi:
//
//	POST /convert    body: image, query: image_convert options
//	POST /identify   body: image
//	POST /quantize   body: image, query: colors
//	GET  /version
//	GET  /healthz
//
// # Image Caching
//
// File contents are cached by path for the lifetime of the process. Writing
// to output_path evicts that path so later reads see the new file.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. HTTP errors are JSON bodies
// of the form {"error": "..."} with a status derived from the error kind.
//
// # Usage
//
//	conv := convert.New(convert.WithLogger(logger))
//	srv := server.New(conv, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
