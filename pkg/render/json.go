package render

import (
	"encoding/json"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// pathDocument is the on-disk JSON shape for a generated path.
type pathDocument struct {
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Segments scribble.Path        `json:"segments"`
	Layers   []scribble.LayerStat `json:"layers"`
}

// RenderJSON serializes the result to indented JSON so external tools
// can replay or plot the path. An empty path is written as [] rather
// than null.
func RenderJSON(res *scribble.Result) ([]byte, error) {
	doc := pathDocument{
		Width:    res.Width,
		Height:   res.Height,
		Segments: res.Path,
		Layers:   res.Layers,
	}
	if doc.Segments == nil {
		doc.Segments = scribble.Path{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "failed to marshal path")
	}
	return data, nil
}
