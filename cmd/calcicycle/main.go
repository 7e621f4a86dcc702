package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/calcium"
	"github.com/carbocation/calcium/background"
	"github.com/carbocation/calcium/buildinfo"
	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/calcium/ratio"
	"github.com/carbocation/calcium/report"
	"github.com/carbocation/calcium/sheet"
)

// options holds everything the command line controls.
type options struct {
	configPath string
	outputDir  string
	sheetName  string
	sheetNum   int
	column     int

	bgReduce   string
	lookahead  int
	delta      float64
	invert     bool
	ratioBy    string
	decayStart float64
	decayEnd   float64
	bounds     bool
	limit      int

	smooth       string
	smoothWidth  int
	smoothPasses int
	cutoff       float64

	ymin, ymax, xmin, xmax float64

	workers int
	png     bool
	verbose bool
}

func main() {
	def := calcicycle.DefaultConfig()
	smooth := calcicycle.DefaultSmoothing()
	var o options

	flag.StringVar(&o.configPath, "config", "", "(Optional) JSON file with default settings. Flags given on the command line take precedence.")
	flag.StringVar(&o.outputDir, "outputdir", ".", "Directory for the processed CSV and the figures")
	flag.StringVar(&o.sheetName, "sheetname", "", "(Optional) Only process the worksheet with this name")
	flag.IntVar(&o.sheetNum, "sheetnum", -1, "(Optional) Only process this worksheet, counting from 0")
	flag.IntVar(&o.column, "column", -1, "(Optional) Only process this cell-line column of the selected worksheet, counting from 0")
	flag.StringVar(&o.bgReduce, "bgreduce", string(def.Background), "Background reduction: average, point, channel or none")
	flag.IntVar(&o.lookahead, "lookahead", def.Lookahead, "Samples that must follow a peak before it is confirmed")
	flag.Float64Var(&o.delta, "delta", def.Delta, "Minimum change before a peak is confirmed")
	flag.BoolVar(&o.invert, "invert", def.Invert, "Select the ratio that least resembles a calcium transient")
	flag.StringVar(&o.ratioBy, "ratioby", string(def.RatioBy), "Ratio selection strategy: time or amplitude")
	flag.Float64Var(&o.decayStart, "decaystart", def.DecayStart, "Relative amplitude at which the decay fit starts, in [0, 1]")
	flag.Float64Var(&o.decayEnd, "decayend", def.DecayEnd, "Relative amplitude at which the decay fit ends, in [0, 1]")
	flag.BoolVar(&o.bounds, "bounds", def.Bounds, "Constrain the decay fit parameters")
	flag.IntVar(&o.limit, "limit", def.Limit, "(Optional) Only analyze the first N wavelets of each column")
	flag.StringVar(&o.smooth, "smooth", smooth.Kind, "Smoothing before the decay fit: average, lowpass or none")
	flag.IntVar(&o.smoothWidth, "smoothwidth", smooth.Width, "Moving average width, in samples")
	flag.IntVar(&o.smoothPasses, "smoothpasses", smooth.Passes, "Number of moving average passes")
	flag.Float64Var(&o.cutoff, "cutoff", smooth.Cutoff, "Low-pass cutoff, in radians per sample")
	flag.Float64Var(&o.ymin, "ymin", 0, "(Optional) Lower limit of the plotted ratio")
	flag.Float64Var(&o.ymax, "ymax", 0, "(Optional) Upper limit of the plotted ratio")
	flag.Float64Var(&o.xmin, "xmin", 0, "(Optional) Lower limit of the plotted time")
	flag.Float64Var(&o.xmax, "xmax", 0, "(Optional) Upper limit of the plotted time")
	flag.IntVar(&o.workers, "workers", 0, "Columns processed at once. 0 uses one per CPU")
	flag.BoolVar(&o.png, "png", false, "Also write a PNG chart for every column")
	flag.BoolVar(&o.verbose, "verbose", false, "Print every wavelet fit and a histogram of Tau per column")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.xlsx|file.xls|file.csv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	log.Println(buildinfo.Get())

	if err := run(flag.Arg(0), o, set); err != nil {
		log.Fatalln(err)
	}
}

func run(input string, o options, set map[string]bool) error {
	cfg := calcicycle.DefaultConfig()
	filter := sheet.AllSheets()
	layout := sheet.DefaultLayout()
	smoothing := calcicycle.DefaultSmoothing()
	var axes report.Axes
	customSmoothing := false

	if o.configPath != "" {
		j, err := calcicycle.ParseJSONConfigFromPath(o.configPath)
		if err != nil {
			return err
		}
		if err := j.Apply(&cfg); err != nil {
			return err
		}
		filter = j.Filter()
		if j.Layout != nil {
			layout = *j.Layout
		}
		if j.OutputDir != "" && !set["outputdir"] {
			o.outputDir = j.OutputDir
		}
		if j.PNG {
			o.png = true
		}
		axes = report.Axes{XMin: j.XMin, XMax: j.XMax, YMin: j.YMin, YMax: j.YMax}

		if j.Smooth != "" {
			smoothing.Kind, customSmoothing = j.Smooth, true
		}
		if j.SmoothWidth != 0 {
			smoothing.Width, customSmoothing = j.SmoothWidth, true
		}
		if j.SmoothPasses != 0 {
			smoothing.Passes, customSmoothing = j.SmoothPasses, true
		}
		if j.Cutoff != 0 {
			smoothing.Cutoff, customSmoothing = j.Cutoff, true
		}
	}

	if err := applyFlags(&cfg, &filter, &axes, &smoothing, &customSmoothing, o, set); err != nil {
		return err
	}

	if customSmoothing {
		s, err := calcicycle.NewSmoother(smoothing.Kind, smoothing.Width, smoothing.Passes, smoothing.Cutoff)
		if err != nil {
			return err
		}
		cfg.Smoothing = s
	}

	if err := axes.Validate(); err != nil {
		return err
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	if o.verbose {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	sheets, err := calcicycle.RunFromFile(input, layout, filter, cfg)
	if err != nil {
		return err
	}

	outDir := calcium.ExpandHome(o.outputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	if err := writeCSV(filepath.Join(outDir, base+"_Processed.csv"), sheets, report.WriteColumns); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, base+"_Wavelets.csv"), sheets, report.WriteWavelets); err != nil {
		return err
	}

	for _, sh := range sheets {
		if err := writeFigures(outDir, base, sh, axes, o.png); err != nil {
			return err
		}

		for _, res := range sh.Columns {
			if res.Err != nil {
				log.Printf("%s - %s: %v\n", sh.Name, res.Column.Name, res.Err)
				continue
			}
			if o.verbose {
				printFits(res)
				if err := report.PrintTauHistogram(os.Stderr, res); err != nil {
					return err
				}
			}
		}
	}

	log.Println("Completed", input)

	return nil
}

// applyFlags copies the flags given on the command line over the settings
// read from the config file.
func applyFlags(cfg *calcicycle.Config, filter *sheet.Filter, axes *report.Axes, smoothing *calcicycle.SmoothingSettings, customSmoothing *bool, o options, set map[string]bool) error {
	var err error

	for name := range set {
		switch name {
		case "sheetname":
			filter.SheetName = o.sheetName
		case "sheetnum":
			filter.SheetNum = o.sheetNum
		case "column":
			filter.Column = o.column
		case "bgreduce":
			if cfg.Background, err = background.ParseMode(o.bgReduce); err != nil {
				return err
			}
		case "ratioby":
			if cfg.RatioBy, err = ratio.ParseMode(o.ratioBy); err != nil {
				return err
			}
		case "lookahead":
			cfg.Lookahead = o.lookahead
		case "delta":
			cfg.Delta = o.delta
		case "invert":
			cfg.Invert = o.invert
		case "decaystart":
			cfg.DecayStart = o.decayStart
		case "decayend":
			cfg.DecayEnd = o.decayEnd
		case "bounds":
			cfg.Bounds = o.bounds
		case "limit":
			cfg.Limit = o.limit
		case "workers":
			cfg.Workers = o.workers
		case "smooth":
			smoothing.Kind, *customSmoothing = o.smooth, true
		case "smoothwidth":
			smoothing.Width, *customSmoothing = o.smoothWidth, true
		case "smoothpasses":
			smoothing.Passes, *customSmoothing = o.smoothPasses, true
		case "cutoff":
			smoothing.Cutoff, *customSmoothing = o.cutoff, true
		case "ymin":
			axes.YMin = &o.ymin
		case "ymax":
			axes.YMax = &o.ymax
		case "xmin":
			axes.XMin = &o.xmin
		case "xmax":
			axes.XMax = &o.xmax
		}
	}

	return nil
}
