package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Adisuarn/Schedule-Parser/internal/export"
	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/imaging"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
	"github.com/Adisuarn/Schedule-Parser/internal/ocr"
	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "timetable_parse").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Reconstruction
	case "timetable_parse":
		return s.handleParse(args)
	case "timetable_cells":
		return s.handleCells(args)
	case "timetable_locate_anchor":
		return s.handleLocateAnchor(args)

	// Visual checks
	case "timetable_overlay":
		return s.handleOverlay(args)
	case "timetable_crop_cell":
		return s.handleCropCell(args)
	case "timetable_image_info":
		return s.handleImageInfo(args)

	// OCR
	case "timetable_ocr":
		return s.handleOCR(args)

	// Configuration
	case "timetable_default_config":
		return s.handleDefaultConfig(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// config returns the server configuration, or the one stored at path.
func (s *Server) config(path string) (layout.Config, error) {
	if path == "" {
		return s.cfg, nil
	}
	return layout.LoadConfig(path)
}

// parser builds a parser from the server configuration or the one at path.
func (s *Server) parser(path string) (*timetable.Parser, error) {
	cfg, err := s.config(path)
	if err != nil {
		return nil, err
	}
	return timetable.NewParser(cfg)
}

// === Reconstruction Handlers ===

type parseArgs struct {
	ArtifactPath    string `json:"artifact_path"`
	ConfigPath      string `json:"config_path"`
	Format          string `json:"format"`
	RefineImagePath string `json:"refine_image_path"`
}

type renderedTable struct {
	Room       string `json:"room,omitempty"`
	Format     string `json:"format"`
	Content    string `json:"content"`
	Unassigned int    `json:"unassigned"`
	Refined    int    `json:"refined,omitempty"`
}

type parsedTableResult struct {
	*timetable.ParsedTable
	Refined int `json:"refined,omitempty"`
}

func (s *Server) handleParse(args json.RawMessage) (interface{}, error) {
	var a parseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ArtifactPath == "" {
		return nil, fmt.Errorf("artifact_path is required")
	}

	format, err := export.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	p, err := s.parser(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	doc, err := fragment.Load(a.ArtifactPath)
	if err != nil {
		return nil, err
	}
	table, err := p.Parse(doc)
	if err != nil {
		return nil, err
	}

	refined := 0
	if a.RefineImagePath != "" {
		img, err := s.cache.Load(a.RefineImagePath)
		if err != nil {
			return nil, err
		}
		refined, err = ocr.Refine(table, img, s.rec, ocr.RefineOptions{})
		if err != nil {
			return nil, err
		}
	}

	if format == export.FormatJSON {
		return parsedTableResult{ParsedTable: table, Refined: refined}, nil
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, table, format); err != nil {
		return nil, err
	}
	return renderedTable{
		Room:       table.Room(),
		Format:     string(format),
		Content:    buf.String(),
		Unassigned: len(table.Unassigned),
		Refined:    refined,
	}, nil
}

type cellsArgs struct {
	OriginX    float64 `json:"origin_x"`
	OriginY    float64 `json:"origin_y"`
	ConfigPath string  `json:"config_path"`
	HeaderRows int     `json:"header_rows"`
	BodyRows   int     `json:"body_rows"`
}

type cellsResult struct {
	Origin geometry.Point   `json:"origin"`
	Rows   layout.Rows      `json:"rows"`
	Extent layout.CellSize  `json:"extent"`
	Cells  []timetable.Cell `json:"cells"`
}

func (s *Server) handleCells(args json.RawMessage) (interface{}, error) {
	var a cellsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cfg, err := s.config(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg = cfg.Normalized()
	if a.HeaderRows != 0 {
		cfg.Rows.Header = a.HeaderRows
	}
	if a.BodyRows != 0 {
		cfg.Rows.Body = a.BodyRows
	}

	origin := geometry.Point{X: a.OriginX, Y: a.OriginY}
	cells, err := timetable.ComputeCells(origin, cfg.Template, cfg.Rows)
	if err != nil {
		return nil, err
	}
	return cellsResult{
		Origin: origin,
		Rows:   cfg.Rows,
		Extent: cfg.Template.Extent(cfg.Rows),
		Cells:  cells,
	}, nil
}

type locateArgs struct {
	ArtifactPath string `json:"artifact_path"`
	ConfigPath   string `json:"config_path"`
	Identifier   string `json:"identifier"`
}

type locateResult struct {
	timetable.Match
	Identifier string `json:"identifier"`
	Fragments  int    `json:"fragments"`
}

func (s *Server) handleLocateAnchor(args json.RawMessage) (interface{}, error) {
	var a locateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ArtifactPath == "" {
		return nil, fmt.Errorf("artifact_path is required")
	}

	cfg, err := s.config(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	anchor := cfg.Anchor
	if a.Identifier != "" {
		anchor.Identifier = a.Identifier
	}

	doc, err := fragment.Load(a.ArtifactPath)
	if err != nil {
		return nil, err
	}
	match, err := timetable.Locate(doc.Fragments, anchor)
	if err != nil {
		return nil, err
	}
	return locateResult{Match: match, Identifier: anchor.Identifier, Fragments: len(doc.Fragments)}, nil
}

// === Visual Check Handlers ===

type overlayArgs struct {
	ImagePath     string   `json:"image_path"`
	ArtifactPath  string   `json:"artifact_path"`
	ConfigPath    string   `json:"config_path"`
	OriginX       *float64 `json:"origin_x"`
	OriginY       *float64 `json:"origin_y"`
	Labels        *bool    `json:"labels"`
	ShowFragments bool     `json:"show_fragments"`
	Thickness     int      `json:"thickness"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	labels := true
	if a.Labels != nil {
		labels = *a.Labels
	}

	p, err := s.parser(a.ConfigPath)
	if err != nil {
		return nil, err
	}

	var (
		cells []timetable.Cell
		frags []fragment.Fragment
	)
	switch {
	case a.ArtifactPath != "":
		doc, err := fragment.Load(a.ArtifactPath)
		if err != nil {
			return nil, err
		}
		table, err := p.Parse(doc)
		if err != nil {
			return nil, err
		}
		cells = table.Cells()
		if a.ShowFragments {
			frags = doc.Fragments
		}
	case a.OriginX != nil && a.OriginY != nil:
		cells, err = p.Cells(geometry.Point{X: *a.OriginX, Y: *a.OriginY})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("either artifact_path or origin_x and origin_y are required")
	}

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(img, cells, imaging.OverlayOptions{
		Thickness: a.Thickness,
		Labels:    labels,
		Fragments: frags,
	})
}

type cropCellArgs struct {
	ImagePath    string           `json:"image_path"`
	ArtifactPath string           `json:"artifact_path"`
	ConfigPath   string           `json:"config_path"`
	Region       timetable.Region `json:"region"`
	Row          int              `json:"row"`
	Column       int              `json:"column"`
	Pad          int              `json:"pad"`
	Scale        float64          `json:"scale"`
}

type cropCellResult struct {
	imaging.EncodedImage
	Cell timetable.Cell `json:"cell"`
}

func (s *Server) handleCropCell(args json.RawMessage) (interface{}, error) {
	var a cropCellArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	p, err := s.parser(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	doc, err := fragment.Load(a.ArtifactPath)
	if err != nil {
		return nil, err
	}
	table, err := p.Parse(doc)
	if err != nil {
		return nil, err
	}

	band := table.Body
	if a.Region == timetable.Header {
		band = table.Header
	}
	if a.Row < 0 || a.Row >= len(band) || a.Column < 0 || a.Column >= len(band[a.Row]) {
		return nil, fmt.Errorf("%s cell (%d,%d) out of range", a.Region, a.Row, a.Column)
	}
	cell := band[a.Row][a.Column]

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	cropped, _, err := imaging.CropCell(img, cell.Rect, a.Pad, a.Scale)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return cropCellResult{EncodedImage: *encoded, Cell: cell}, nil
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === OCR Handlers ===

type ocrArgs struct {
	ImagePath  string `json:"image_path"`
	Language   string `json:"language"`
	Preprocess *bool  `json:"preprocess"`
}

type ocrResult struct {
	Engine    ocr.Info            `json:"engine"`
	Source    string              `json:"source"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Fragments []fragment.Fragment `json:"fragments"`
}

func (s *Server) handleOCR(args json.RawMessage) (interface{}, error) {
	var a ocrArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	rec := *s.rec
	if a.Language != "" {
		rec.Language = a.Language
	}
	if a.Preprocess != nil {
		rec.Preprocess = *a.Preprocess
	}

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	doc, err := rec.RecognizeImage(img, a.ImagePath)
	if err != nil {
		return nil, err
	}
	return ocrResult{
		Engine:    rec.Info(),
		Source:    doc.Source,
		Width:     doc.Width,
		Height:    doc.Height,
		Fragments: doc.Fragments,
	}, nil
}

// === Configuration Handlers ===

type defaultConfigArgs struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type defaultConfigResult struct {
	YAML   string        `json:"yaml"`
	Config layout.Config `json:"config"`
}

func (s *Server) handleDefaultConfig(args json.RawMessage) (interface{}, error) {
	var a defaultConfigArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 {
		a.Width = layout.DefaultWidth
	}
	if a.Height <= 0 {
		a.Height = layout.DefaultHeight
	}

	cfg := layout.DefaultConfigSized(a.Width, a.Height)
	data, err := cfg.YAML()
	if err != nil {
		return nil, err
	}
	return defaultConfigResult{YAML: string(data), Config: cfg}, nil
}
