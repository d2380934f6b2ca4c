package fragment

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// visionFile mirrors the subset of a Cloud Vision annotate response we use.
type visionFile struct {
	Responses []struct {
		TextAnnotations []struct {
			Description  string  `json:"description"`
			Score        float64 `json:"score"`
			BoundingPoly struct {
				Vertices []struct {
					X *float64 `json:"x"`
					Y *float64 `json:"y"`
				} `json:"vertices"`
			} `json:"boundingPoly"`
		} `json:"textAnnotations"`
	} `json:"responses"`
}

// nativeFile is the on-disk form written by WriteNative.
type nativeFile struct {
	Source    string `json:"source,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Fragments []struct {
		Text       string           `json:"text"`
		Polygon    geometry.Polygon `json:"polygon"`
		Confidence *float64         `json:"confidence"`
	} `json:"fragments"`
}

// ReadVision decodes a Cloud Vision textDetection response.
//
// Vision omits vertex coordinates equal to zero, so missing x or y values
// read as 0. The first annotation of each response is the concatenated page
// text and is skipped. Annotations without a score get confidence 1.
func ReadVision(r io.Reader, source string) (*Document, error) {
	var vf visionFile
	if err := json.NewDecoder(r).Decode(&vf); err != nil {
		return nil, errors.Wrap(err, "failed to decode vision response")
	}

	raw := make([]Fragment, 0)
	for _, resp := range vf.Responses {
		for i, ann := range resp.TextAnnotations {
			if i == 0 {
				continue
			}
			pg := make(geometry.Polygon, 0, len(ann.BoundingPoly.Vertices))
			for _, v := range ann.BoundingPoly.Vertices {
				var p geometry.Point
				if v.X != nil {
					p.X = *v.X
				}
				if v.Y != nil {
					p.Y = *v.Y
				}
				pg = append(pg, p)
			}
			conf := ann.Score
			if conf == 0 {
				conf = 1
			}
			raw = append(raw, Fragment{Text: ann.Description, Polygon: pg, Confidence: conf})
		}
	}
	return New(source, 0, 0, raw), nil
}

// ReadNative decodes the native fragment format.
func ReadNative(r io.Reader, source string) (*Document, error) {
	var nf nativeFile
	if err := json.NewDecoder(r).Decode(&nf); err != nil {
		return nil, errors.Wrap(err, "failed to decode fragment document")
	}
	if nf.Source != "" {
		source = nf.Source
	}

	raw := make([]Fragment, 0, len(nf.Fragments))
	for _, f := range nf.Fragments {
		conf := 1.0
		if f.Confidence != nil {
			conf = *f.Confidence
		}
		raw = append(raw, Fragment{Text: f.Text, Polygon: f.Polygon, Confidence: conf})
	}
	return New(source, nf.Width, nf.Height, raw), nil
}

// Read detects the artifact format and decodes it.
func Read(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read OCR artifact")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(err, "failed to decode OCR artifact")
	}
	switch {
	case top["responses"] != nil:
		return ReadVision(bytes.NewReader(data), source)
	case top["fragments"] != nil:
		return ReadNative(bytes.NewReader(data), source)
	default:
		return nil, errors.New("unrecognized OCR artifact: expected \"responses\" or \"fragments\"")
	}
}

// Load reads an OCR artifact from path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open OCR artifact")
	}
	defer f.Close()

	doc, err := Read(f, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return doc, nil
}

// WriteNative encodes doc in the native format.
func WriteNative(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "failed to encode fragment document")
}
