package main

// Corrupt the quantization tables and image data of a JPEG file and write
// the result to a new file. APP1 to APP15 segments are dropped.

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	mosh "github.com/knobs-dials/jpeg-mosh"
)

type options struct {
	params    mosh.Params
	seed      uint64
	validator string
	verbose   bool
}

// parseArgs reads flags and the infile and outfile arguments.
func parseArgs(fs *flag.FlagSet, args []string) (options, []string, error) {
	def := mosh.DefaultParams()
	mode := fs.String("mode", "all", "what to corrupt: quant, image, all or none (or 0-3)")
	qt := fs.String("qt", def.Quant.String(), "quantization table intensity, rounds,bits or a preset")
	im := fs.String("im", def.Image.String(), "image data intensity, rounds,bits or a preset")
	validate := fs.Bool("validate", false, "retry until the output decodes")
	tries := fs.Int("tries", def.MaxTries, "attempts when validating")
	seed := fs.Uint64("seed", 0, "random seed, 0 for a random one")
	validator := fs.String("validator", "jpegn", "decoder used to validate: jpegn or std")
	verbose := fs.Bool("v", false, "report failed attempts")
	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}

	var o options
	var err error
	if o.params.Mode, err = mosh.ParseMode(*mode); err != nil {
		return o, nil, err
	}
	if o.params.Quant, err = mosh.ParseIntensity(*qt, mosh.QuantPresets); err != nil {
		return o, nil, err
	}
	if o.params.Image, err = mosh.ParseIntensity(*im, mosh.ImagePresets); err != nil {
		return o, nil, err
	}
	o.params.Validate = *validate
	o.params.MaxTries = *tries
	o.seed = *seed
	o.validator = *validator
	o.verbose = *verbose
	return o, fs.Args(), nil
}

// newMosher sets up a Mosher for the options.
func newMosher(o options) (*mosh.Mosher, error) {
	m := &mosh.Mosher{Params: o.params}
	if o.seed != 0 {
		m = mosh.NewMosher(o.params, o.seed)
	}
	v, err := mosh.NewValidator(o.validator)
	if err != nil {
		return nil, err
	}
	m.Validator = v
	if o.verbose {
		m.Logf = log.Printf
	}
	return m, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix(color.RedString("jpegmoshcorrupt: "))
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] infile outfile\n", os.Args[0])
		fs.PrintDefaults()
	}
	o, args, err := parseArgs(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if len(args) != 2 {
		fs.Usage()
		return
	}
	m, err := newMosher(o)
	if err != nil {
		log.Fatal(err)
	}
	buf, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatal(err)
	}
	if !mosh.IsJPEGHeader(buf) {
		log.Fatalf("%s: not a JPEG file", args[0])
	}
	out, err := m.Corrupt(buf)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(args[1], out, 0644); err != nil {
		log.Fatal(err)
	}
}
