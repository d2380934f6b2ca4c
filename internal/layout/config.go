package layout

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
)

// Offset is a pixel displacement.
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Anchor is the printed marker that fixes the template origin: the matched
// fragment's top-left vertex plus Offset.
type Anchor struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Offset     Offset `json:"offset" yaml:"offset"`
}

// Default page and anchor values for the printed timetable form.
const (
	DefaultWidth  = 3507
	DefaultHeight = 2481

	DefaultAnchorIdentifier = "ภาคเรียน"

	// DefaultPolicy names the metadata policy that reads the room from the
	// first header cell.
	DefaultPolicy = "header-cell"
)

// Config is everything one run needs besides the OCR artifacts. It is built
// once, validated, and then passed by value into every call.
type Config struct {
	Template CanvasTemplate `json:"template" yaml:"template"`
	Anchor   Anchor         `json:"anchor" yaml:"anchor"`
	Rows     Rows           `json:"rows" yaml:"rows"`

	// Policy selects the metadata extraction rule, see timetable.PolicyByName.
	Policy string `json:"policy" yaml:"policy"`

	// Tolerance is how far (in pixels) a fragment centroid may lie outside
	// every cell and still be attached to the nearest one. Zero or less means
	// half the smallest cell dimension.
	Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`

	// Workers bounds the goroutines used for fragment assignment and batch
	// processing. Zero or less means one per CPU.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultTemplate returns the printed timetable form at the given page size.
func DefaultTemplate(width, height float64) CanvasTemplate {
	return CanvasTemplate{
		Page:    CellSize{Width: width, Height: height},
		MarginX: 10,
		MarginY: 40,
		Header: RegionTemplate{
			Primary:   CellSize{Width: 287, Height: 154},
			Secondary: CellSize{Width: 287, Height: 258},
			Tertiary:  CellSize{Width: 232, Height: 258},
			Tags:      MustParseRowTypes("DS", "DS", "BP", "DS", "DS", "BS", "DS", "DS", "BP", "DS", "DS"),
		},
		Body: RegionTemplate{
			Primary:   CellSize{Width: 130, Height: 1290},
			Secondary: CellSize{Width: 160, Height: 1032},
			Tags:      MustParseRowTypes("DS", "DS", "DS", "DS", "DS"),
		},
	}
}

// DefaultConfig returns the configuration for the standard scan size.
func DefaultConfig() Config {
	return DefaultConfigSized(DefaultWidth, DefaultHeight)
}

// DefaultConfigSized returns the default configuration for pages rendered at
// a different resolution.
func DefaultConfigSized(width, height float64) Config {
	return Config{
		Template: DefaultTemplate(width, height),
		Anchor:   Anchor{Identifier: DefaultAnchorIdentifier, Offset: Offset{X: 38, Y: 250}},
		Rows:     Rows{Header: 1, Body: 1},
		Policy:   DefaultPolicy,
	}
}

// Validate checks the template against the configured rows and the anchor.
func (c Config) Validate() error {
	if err := c.Template.ValidateRows(c.Rows); err != nil {
		return err
	}
	if fragment.Normalize(c.Anchor.Identifier) == "" {
		return errors.Wrap(ErrInvalidTemplate, "anchor identifier is empty")
	}
	return nil
}

// Normalized returns a copy with defaults filled in and the anchor
// identifier in the same normal form as fragment text.
func (c Config) Normalized() Config {
	c.Anchor.Identifier = fragment.Normalize(c.Anchor.Identifier)
	if c.Rows.Header == 0 {
		c.Rows.Header = 1
	}
	if c.Rows.Body == 0 {
		c.Rows.Body = 1
	}
	if c.Policy == "" {
		c.Policy = DefaultPolicy
	}
	if c.Tolerance <= 0 {
		c.Tolerance = c.Template.SmallestDimension() / 2
	}
	c.Template.Header.Tags = append([]RowType(nil), c.Template.Header.Tags...)
	c.Template.Body.Tags = append([]RowType(nil), c.Template.Body.Tags...)
	return c
}

// ParseConfig decodes a YAML configuration. Fields left out keep the
// values of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file. An empty path yields the
// validated default configuration.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		cfg := DefaultConfig().Normalized()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "failed to encode config")
}
