package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	configPathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to a YAML config file. Defaults to the server's configuration.",
	}
	artifactPathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to an OCR artifact (Cloud Vision response or native fragment JSON)",
	}
	imagePathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the page image",
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Reconstruction
		{
			Name:        "timetable_parse",
			Description: "Reconstruct the timetable grid from an OCR artifact: locate the anchor, lay out the cells, assign every text fragment and extract the room. Returns the table with cell rectangles, texts and unassigned fragments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"artifact_path": artifactPathProperty,
					"config_path":   configPathProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"json", "markdown", "html"},
						"description": "Output rendering. Default json",
						"default":     "json",
					},
					"refine_image_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional page image; empty cells are re-read from it with Tesseract",
					},
				},
				"required": []string{"artifact_path"},
			},
		},
		{
			Name:        "timetable_cells",
			Description: "Compute the empty cell grid for a template origin without reading any OCR data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"origin_x":    map[string]interface{}{"type": "number", "description": "Template origin X in page pixels"},
					"origin_y":    map[string]interface{}{"type": "number", "description": "Template origin Y in page pixels"},
					"config_path": configPathProperty,
					"header_rows": map[string]interface{}{"type": "integer", "description": "Override the configured header row count"},
					"body_rows":   map[string]interface{}{"type": "integer", "description": "Override the configured body row count"},
				},
				"required": []string{"origin_x", "origin_y"},
			},
		},
		{
			Name:        "timetable_locate_anchor",
			Description: "Find the anchor fragment in an OCR artifact and report the template origin derived from it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"artifact_path": artifactPathProperty,
					"config_path":   configPathProperty,
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Override the configured anchor text",
					},
				},
				"required": []string{"artifact_path"},
			},
		},

		// Visual checks
		{
			Name:        "timetable_overlay",
			Description: "Draw the computed cell grid over the page image and return it as base64 PNG. The origin comes from the OCR artifact's anchor, or from origin_x/origin_y when no artifact is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":     imagePathProperty,
					"artifact_path":  artifactPathProperty,
					"config_path":    configPathProperty,
					"origin_x":       map[string]interface{}{"type": "number"},
					"origin_y":       map[string]interface{}{"type": "number"},
					"labels":         map[string]interface{}{"type": "boolean", "description": "Label each cell with its band, row and column. Default true", "default": true},
					"show_fragments": map[string]interface{}{"type": "boolean", "description": "Outline the OCR fragments too. Default false", "default": false},
					"thickness":      map[string]interface{}{"type": "integer", "description": "Outline thickness in pixels. Default 3", "default": 3},
				},
				"required": []string{"image_path"},
			},
		},
		{
			Name:        "timetable_crop_cell",
			Description: "Crop one parsed cell out of the page image, optionally enlarged, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":    imagePathProperty,
					"artifact_path": artifactPathProperty,
					"config_path":   configPathProperty,
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"header", "body"},
						"description": "Band of the cell",
					},
					"row":    map[string]interface{}{"type": "integer"},
					"column": map[string]interface{}{"type": "integer"},
					"pad":    map[string]interface{}{"type": "integer", "description": "Extra pixels around the cell. Default 0"},
					"scale":  map[string]interface{}{"type": "number", "description": "Resize factor. Default 1.0", "default": 1.0},
				},
				"required": []string{"image_path", "artifact_path", "region", "row", "column"},
			},
		},
		{
			Name:        "timetable_image_info",
			Description: "Get the dimensions and format of a page image, to check it against the template's page size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": imagePathProperty,
				},
				"required": []string{"path"},
			},
		},

		// OCR
		{
			Name:        "timetable_ocr",
			Description: "Run Tesseract on a page image and return the word fragments in the native artifact format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty,
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language spec. Default tha+eng",
					},
					"preprocess": map[string]interface{}{
						"type":        "boolean",
						"description": "Grayscale, contrast and threshold the page first. Default true",
						"default":     true,
					},
				},
				"required": []string{"image_path"},
			},
		},

		// Configuration
		{
			Name:        "timetable_default_config",
			Description: "Return the default configuration (template, anchor, policy) as YAML, optionally for a different page size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width":  map[string]interface{}{"type": "number", "description": "Page width in pixels. Default 3507"},
					"height": map[string]interface{}{"type": "number", "description": "Page height in pixels. Default 2481"},
				},
			},
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
