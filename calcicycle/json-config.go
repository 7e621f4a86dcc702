package calcicycle

import (
	"encoding/json"
	"log"
	"os"

	"github.com/carbocation/calcium"
	"github.com/carbocation/calcium/background"
	"github.com/carbocation/calcium/ratio"
	"github.com/carbocation/calcium/sheet"
	"github.com/carbocation/pfx"
)

// JSONConfig is the on-disk form of a run's settings. Zero values mean "not
// set"; the axis limits are pointers because zero is a meaningful limit.
type JSONConfig struct {
	ConfigPath string `json:"-"`

	OutputDir string `json:"outputdir"`
	SheetName string `json:"sheetname"`
	SheetNum  *int   `json:"sheetnum"`
	Column    *int   `json:"column"`

	BgReduce   string  `json:"bgreduce"`
	Lookahead  int     `json:"lookahead"`
	Delta      float64 `json:"delta"`
	Invert     bool    `json:"invert"`
	RatioBy    string  `json:"ratioby"`
	DecayStart float64 `json:"decaystart"`
	DecayEnd   float64 `json:"decayend"`
	Bounds     bool    `json:"bounds"`
	Limit      int     `json:"limit"`

	Smooth       string  `json:"smooth"`
	SmoothWidth  int     `json:"smoothwidth"`
	SmoothPasses int     `json:"smoothpasses"`
	Cutoff       float64 `json:"cutoff"`

	Workers int  `json:"workers"`
	PNG     bool `json:"png"`

	YMin *float64 `json:"ymin"`
	YMax *float64 `json:"ymax"`
	XMin *float64 `json:"xmin"`
	XMax *float64 `json:"xmax"`

	Layout *sheet.Layout `json:"layout"`
}

func ParseJSONConfigFromPath(path string) (JSONConfig, error) {
	out := JSONConfig{ConfigPath: path}

	f, err := os.Open(calcium.ExpandHome(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&out)
	if err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}
		return out, pfx.Err(err)
	}

	// Interpret ~ if present
	out.ConfigPath = calcium.ExpandHome(out.ConfigPath)
	out.OutputDir = calcium.ExpandHome(out.OutputDir)

	return out, nil
}

// Apply copies every setting present in j onto cfg.
func (j JSONConfig) Apply(cfg *Config) error {
	if j.BgReduce != "" {
		m, err := background.ParseMode(j.BgReduce)
		if err != nil {
			return pfx.Err(err)
		}
		cfg.Background = m
	}
	if j.RatioBy != "" {
		m, err := ratio.ParseMode(j.RatioBy)
		if err != nil {
			return pfx.Err(err)
		}
		cfg.RatioBy = m
	}
	if j.Lookahead != 0 {
		cfg.Lookahead = j.Lookahead
	}
	if j.Delta != 0 {
		cfg.Delta = j.Delta
	}
	if j.Invert {
		cfg.Invert = true
	}
	if j.DecayStart != 0 {
		cfg.DecayStart = j.DecayStart
	}
	if j.DecayEnd != 0 {
		cfg.DecayEnd = j.DecayEnd
	}
	if j.Bounds {
		cfg.Bounds = true
	}
	if j.Limit != 0 {
		cfg.Limit = j.Limit
	}
	if j.Workers != 0 {
		cfg.Workers = j.Workers
	}

	if j.Smooth != "" || j.SmoothWidth != 0 || j.SmoothPasses != 0 || j.Cutoff != 0 {
		def := DefaultSmoothing()
		width, passes, cutoff := def.Width, def.Passes, def.Cutoff
		if j.SmoothWidth != 0 {
			width = j.SmoothWidth
		}
		if j.SmoothPasses != 0 {
			passes = j.SmoothPasses
		}
		if j.Cutoff != 0 {
			cutoff = j.Cutoff
		}
		s, err := NewSmoother(j.Smooth, width, passes, cutoff)
		if err != nil {
			return err
		}
		cfg.Smoothing = s
	}

	return nil
}

// Filter returns the sheet filter described by j.
func (j JSONConfig) Filter() sheet.Filter {
	f := sheet.AllSheets()
	f.SheetName = j.SheetName
	if j.SheetNum != nil {
		f.SheetNum = *j.SheetNum
	}
	if j.Column != nil {
		f.Column = *j.Column
	}
	return f
}
