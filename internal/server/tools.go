package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        values,
		"description": description,
	}
}

// sourceProps are the two ways a tool can receive an image.
func sourceProps(props map[string]interface{}) map[string]interface{} {
	props["path"] = prop("string", "Absolute path to the image file. Either path or src_base64 is required")
	props["src_base64"] = prop("string", "Base64-encoded image data, used instead of path")
	return props
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var formatNames = []string{"PNG", "JPEG", "GIF", "BMP", "TIFF", "WEBP", "AVIF"}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "image_convert",
			Description: "Resize, crop, pad and re-encode an image. Returns the result as base64 with its MIME type, " +
				"or writes it to output_path. Operations run in a fixed order: auto-orient, trim, blur, resize/crop/extent, " +
				"rotate, flip, flop, brightness/contrast, flatten, encode.",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"srcFormat":   enumProp("Expected source format. A mismatch is reported as a warning", formatNames...),
				"width":       prop("integer", "Target width in pixels. 0 derives it from height and the aspect ratio"),
				"height":      prop("integer", "Target height in pixels. 0 derives it from width and the aspect ratio"),
				"resizeStyle": enumProp("How the image fits the target box. Default aspectfill", "aspectfill", "aspectfit", "fill", "crop"),
				"gravity":     enumProp("Anchor for cropping or padding. Default Center", "Center", "North", "South", "East", "West", "NorthEast", "NorthWest", "SouthEast", "SouthWest", "None"),
				"cropMode": enumProp("Alternative spelling of gravity",
					"none", "top-left", "top-center", "top-right", "middle-left", "middle-center", "middle-right", "bottom-left", "bottom-center", "bottom-right"),
				"xoffset":        prop("integer", "Left edge of the crop box for resizeStyle crop"),
				"yoffset":        prop("integer", "Top edge of the crop box for resizeStyle crop"),
				"filter":         prop("string", "Resampling filter (Lanczos, Mitchell, Catrom, Triangle, Box, Point, ...). Default Lanczos"),
				"format":         enumProp("Output format. Default keeps the source format", formatNames...),
				"quality":        prop("integer", "Encoder quality 0-100. Default 75"),
				"density":        prop("number", "Output resolution in dots per inch (PNG and JPEG)"),
				"strip":          prop("boolean", "Drop metadata such as density from the output"),
				"rotate":         prop("number", "Clockwise rotation in degrees"),
				"flip":           prop("boolean", "Mirror vertically"),
				"flop":           prop("boolean", "Mirror horizontally"),
				"blur":           prop("number", "Gaussian blur sigma"),
				"brightness":     prop("number", "Brightness change -100..100"),
				"contrast":       prop("number", "Contrast change -100..100"),
				"background":     prop("string", "Fill color for padding and rotation, and flatten color for transparency (#rrggbb, #rrggbbaa or a name)"),
				"trim":           prop("boolean", "Remove borders matching the top-left pixel before resizing"),
				"trimFuzz":       prop("number", "Color tolerance for trim, 0-1"),
				"autoOrient":     prop("boolean", "Apply the EXIF orientation before anything else"),
				"maxMemory":      prop("integer", "Pixel cache ceiling in bytes for this request. 0 keeps the server limit"),
				"debug":          prop("boolean", "Log every pipeline step at debug level"),
				"ignoreWarnings": prop("boolean", "Do not report decode warnings"),
				"output_path":    prop("string", "Write the converted image here instead of returning base64"),
			})),
		},
		{
			Name:        "image_identify",
			Description: "Report width, height, bit depth, format, color space, alpha, density and EXIF orientation without decoding pixels.",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"debug":          prop("boolean", "Log identification at debug level"),
				"ignoreWarnings": prop("boolean", "Report a corrupt EXIF block as a warning instead of failing"),
			})),
		},
		{
			Name:        "image_quantize_colors",
			Description: "Extract the dominant colors of an image by median-cut quantization, most frequent first.",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"colors": prop("integer", "Number of colors to return. Default 5"),
			})),
		},
		{
			Name:        "image_get_pixels",
			Description: "Read back a rectangle of pixels as 16-bit red, green, blue and opacity values (opacity 0 is opaque).",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"x":       prop("integer", "Left edge (0-based)"),
				"y":       prop("integer", "Top edge (0-based)"),
				"columns": prop("integer", "Width of the window"),
				"rows":    prop("integer", "Height of the window"),
			}), "x", "y", "columns", "rows"),
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color at one or more pixel coordinates as RGB, hex and HSL.",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"x": prop("integer", "X coordinate (0-based, from left)"),
				"y": prop("integer", "Y coordinate (0-based, from top)"),
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Sample several points instead of x/y",
					"items": objectSchema(map[string]interface{}{
						"x":     map[string]interface{}{"type": "integer"},
						"y":     map[string]interface{}{"type": "integer"},
						"label": map[string]interface{}{"type": "string"},
					}, "x", "y"),
				},
				"autoOrient": prop("boolean", "Apply the EXIF orientation before sampling"),
			})),
		},
		{
			Name:        "image_composite",
			Description: "Draw an overlay image over a base image and return the result as base64, or write it to output_path.",
			InputSchema: objectSchema(sourceProps(map[string]interface{}{
				"overlay_path":   prop("string", "Absolute path to the overlay image"),
				"overlay_base64": prop("string", "Base64-encoded overlay image, used instead of overlay_path"),
				"gravity": prop("string", "Placement of the overlay: CenterGravity, NorthGravity, ..., SouthEastGravity, ForgetGravity. "+
					"Unknown names place it at the top-left corner"),
				"format":      enumProp("Output format. Default keeps the base format", formatNames...),
				"quality":     prop("integer", "Encoder quality 0-100"),
				"output_path": prop("string", "Write the result here instead of returning base64"),
			})),
		},
		{
			Name:        "image_version",
			Description: "Report the server version, supported formats, quantum depth and imaging library versions.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
