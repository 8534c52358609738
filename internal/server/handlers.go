package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/image-convert-mcp/internal/convert"
	"github.com/ironsheep/image-convert-mcp/internal/imaging"
)

// ErrPathOutsideBase is returned when a path argument escapes the
// configured base directory.
var ErrPathOutsideBase = errors.New("path is outside the allowed directory")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_convert", "image_identify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Info().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_convert":
		return s.handleImageConvert(ctx, args)
	case "image_identify":
		return s.handleImageIdentify(ctx, args)
	case "image_quantize_colors":
		return s.handleImageQuantizeColors(ctx, args)
	case "image_get_pixels":
		return s.handleImageGetPixels(ctx, args)
	case "image_sample_color":
		return s.handleImageSampleColor(ctx, args)
	case "image_composite":
		return s.handleImageComposite(ctx, args)
	case "image_version":
		return convert.Version(s.version), nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageSource is the image argument shared by every tool.
type imageSource struct {
	Path      string `json:"path"`
	SrcBase64 string `json:"src_base64"`
}

// load returns the image bytes named by src, reading files through the
// cache.
func (s *Server) load(src imageSource) ([]byte, error) {
	return s.loadFrom(src.Path, src.SrcBase64)
}

func (s *Server) loadFrom(path, b64 string) ([]byte, error) {
	switch {
	case b64 != "":
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 image data: %w", err)
		}
		return data, nil
	case path != "":
		if err := s.checkPath(path); err != nil {
			return nil, err
		}
		return s.cache.Load(path)
	default:
		return nil, convert.ErrMissingSource
	}
}

// checkPath rejects paths that resolve outside the base directory once
// symlinks are followed.
func (s *Server) checkPath(path string) error {
	if s.baseDir == "" {
		return nil
	}
	base, err := resolvePath(s.baseDir)
	if err != nil {
		return fmt.Errorf("allowed directory: %w", err)
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathOutsideBase, path, err)
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathOutsideBase, path)
	}
	return nil
}

// resolvePath returns the absolute path with every symlink followed. A path
// that does not exist yet, such as an output file, resolves through its
// parent directory. A dangling symlink is an error, since writing through it
// would create its target.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if fi, lerr := os.Lstat(abs); lerr == nil && fi.Mode()&fs.ModeSymlink != 0 {
		return "", errors.New("dangling symlink")
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// imageOutput is the result of a tool that produces an image.
type imageOutput struct {
	Format     string   `json:"format"`
	MimeType   string   `json:"mime_type"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	SizeBytes  int      `json:"size_bytes"`
	Data       string   `json:"data,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// deliver returns result as base64, or writes it to outputPath.
func (s *Server) deliver(result *convert.Result, outputPath string) (*imageOutput, error) {
	out := &imageOutput{
		Format:    string(result.Format),
		MimeType:  result.MimeType(),
		Width:     result.Width,
		Height:    result.Height,
		SizeBytes: len(result.Data),
		Warnings:  result.Warnings,
	}

	if outputPath == "" {
		out.Data = base64.StdEncoding.EncodeToString(result.Data)
		return out, nil
	}

	if err := s.checkPath(outputPath); err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, result.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	s.cache.Evict(outputPath)
	out.OutputPath = outputPath
	return out, nil
}

// convert runs opts on the pool when one is configured.
func (s *Server) convert(ctx context.Context, opts convert.Options) (*convert.Result, error) {
	if s.pool == nil {
		return s.conv.Convert(ctx, opts)
	}
	select {
	case out := <-s.pool.Go(ctx, opts):
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// === Conversion ===

type imageConvertArgs struct {
	imageSource
	convert.Options
	OutputPath string `json:"output_path"`
}

func (s *Server) handleImageConvert(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageConvertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	a.Options.SrcData = data

	result, err := s.convert(ctx, a.Options)
	if err != nil {
		return nil, err
	}
	return s.deliver(result, a.OutputPath)
}

// === Inspection ===

type imageIdentifyArgs struct {
	imageSource
	convert.IdentifyOptions
}

func (s *Server) handleImageIdentify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageIdentifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	a.IdentifyOptions.SrcData = data
	return s.conv.Identify(ctx, a.IdentifyOptions)
}

type imageQuantizeArgs struct {
	imageSource
	Colors int `json:"colors"`
}

func (s *Server) handleImageQuantizeColors(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageQuantizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	colors, err := s.conv.QuantizeColors(ctx, convert.QuantizeOptions{SrcData: data, Colors: a.Colors})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"colors": colors}, nil
}

type imageGetPixelsArgs struct {
	imageSource
	X       int `json:"x"`
	Y       int `json:"y"`
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

func (s *Server) handleImageGetPixels(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageGetPixelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	pixels, err := s.conv.GetPixels(ctx, convert.PixelsOptions{SrcData: data, X: a.X, Y: a.Y, Columns: a.Columns, Rows: a.Rows})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"quantum_depth": convert.QuantumDepth,
		"pixels":        pixels,
	}, nil
}

type imageSampleColorArgs struct {
	imageSource
	X          int                    `json:"x"`
	Y          int                    `json:"y"`
	Points     []imaging.LabeledPoint `json:"points"`
	AutoOrient bool                   `json:"autoOrient"`
}

func (s *Server) handleImageSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	if len(a.Points) > 0 {
		return s.conv.SampleColors(ctx, data, a.Points, a.AutoOrient)
	}
	results, err := s.conv.SampleColors(ctx, data, []imaging.LabeledPoint{{X: a.X, Y: a.Y}}, a.AutoOrient)
	if err != nil {
		return nil, err
	}
	return results[0].Color, nil
}

// === Compositing ===

type imageCompositeArgs struct {
	imageSource
	OverlayPath   string `json:"overlay_path"`
	OverlayBase64 string `json:"overlay_base64"`
	Gravity       string `json:"gravity"`
	Format        string `json:"format"`
	Quality       int    `json:"quality"`
	OutputPath    string `json:"output_path"`
}

func (s *Server) handleImageComposite(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageCompositeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	base, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	overlay, err := s.loadFrom(a.OverlayPath, a.OverlayBase64)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}

	result, err := s.conv.Composite(ctx, convert.CompositeOptions{
		SrcData:       base,
		CompositeData: overlay,
		Gravity:       a.Gravity,
		Format:        a.Format,
		Quality:       a.Quality,
	})
	if err != nil {
		return nil, err
	}
	return s.deliver(result, a.OutputPath)
}
