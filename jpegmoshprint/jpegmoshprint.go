package main

// Print JPEG markers, segment lengths and a summary of the headers that
// matter for corruption.

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	mosh "github.com/knobs-dials/jpeg-mosh"
	"github.com/rodaine/table"
)

var (
	headerFmt = color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt = color.New(color.FgYellow).SprintfFunc()
	warnFmt   = color.New(color.FgRed).SprintfFunc()
)

// printImage prints the segments of a single image and returns them. A file
// using the MPF extensions can contain multiple images.
func printImage(w io.Writer, buf []byte, details bool) []mosh.Segment {
	segments := mosh.ReadSegments(buf)
	tbl := table.New("Offset", "Marker", "Length", "Segment", "Notes")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithWriter(w)
	for _, seg := range segments {
		tbl.AddRow(seg.Offset, seg.Marker.Name(), seg.Length, seg.Kind, notes(seg, details))
	}
	tbl.Print()
	if covered := mosh.Covered(segments); covered < len(buf) {
		fmt.Fprintln(w, warnFmt("%d of %d bytes not in a segment", len(buf)-covered, len(buf)))
	}
	return segments
}

// notes describes the header of a segment in a few words.
func notes(seg mosh.Segment, details bool) string {
	var parts []string
	if seg.Truncated() {
		parts = append(parts, warnFmt("truncated, %d bytes present", len(seg.Bytes)))
	}
	switch seg.Kind.Class {
	case mosh.ClassAPP:
		if j, err := mosh.ParseJFIF(seg); err == nil {
			parts = append(parts, fmt.Sprintf("JFIF %d.%02d, %dx%d %s", j.Major, j.Minor, j.XDensity, j.YDensity, j.UnitName()))
		}
		if ok, _ := mosh.GetExifHeader(seg); ok {
			parts = append(parts, exifNotes(seg))
		}
		if ok, _ := mosh.GetMPFHeader(seg); ok {
			parts = append(parts, mpfNotes(seg))
		}
		if seg.Marker != mosh.APP0 {
			parts = append(parts, "stripped when moshing")
		}
	case mosh.ClassSOF:
		if f, err := mosh.ParseFrame(seg); err == nil {
			parts = append(parts, frameNotes(f, details))
		}
	case mosh.ClassDQT:
		tables, err := mosh.QuantTables(seg)
		for _, q := range tables {
			parts = append(parts, fmt.Sprintf("table %d (%d bit)", q.ID, 8<<q.Precision))
		}
		if err != nil {
			parts = append(parts, warnFmt("%v", err))
		}
	case mosh.ClassSOS:
		if h, err := mosh.ParseScanHeader(seg); err == nil && details {
			for _, c := range h.Components {
				parts = append(parts, fmt.Sprintf("%s dc%d/ac%d", mosh.ComponentName(c.ID), c.DC, c.AC))
			}
		}
		parts = append(parts, entropyNotes(seg))
	}
	return strings.Join(parts, ", ")
}

func exifNotes(seg mosh.Segment) string {
	tree, err := mosh.GetExifTree(seg)
	if err != nil {
		return warnFmt("Exif: %v", err)
	}
	return fmt.Sprintf("Exif, %d IFDs", mosh.CountIFDs(tree))
}

// mpfNotes names the tags of the MPF index in seg.
func mpfNotes(seg mosh.Segment) string {
	tree, err := mosh.GetMPFTree(seg)
	if err != nil {
		return warnFmt("MPF: %v", err)
	}
	names := make([]string, 0, len(tree.Fields))
	for _, f := range tree.Fields {
		name, ok := mosh.MPFIndexTagNames[f.Tag]
		if !ok {
			name = fmt.Sprintf("%#04x", uint16(f.Tag))
		}
		names = append(names, name)
	}
	return "MPF index: " + strings.Join(names, " ")
}

func frameNotes(f mosh.Frame, details bool) string {
	s := fmt.Sprintf("%dx%d, %d bit", f.Width, f.Height, f.Precision)
	if !details {
		return fmt.Sprintf("%s, %d components", s, len(f.Components))
	}
	for _, c := range f.Components {
		s += fmt.Sprintf(", %s %dx%d q%d", mosh.ComponentName(c.ID), c.H, c.V, c.QTable)
	}
	return s
}

func entropyNotes(seg mosh.Segment) string {
	st, err := mosh.ScanEntropy(seg)
	if err != nil {
		return warnFmt("%v", err)
	}
	s := fmt.Sprintf("%d bytes of image data", st.Data)
	if st.Restarts > 0 {
		s += fmt.Sprintf(" and %d reset markers", st.Restarts)
	}
	if st.Next != 0 {
		s += fmt.Sprintf(", %s at %d", st.Next.Name(), seg.Offset+st.End)
	}
	return s
}

// printMPFImages prints the additional images listed in a MPF segment.
func printMPFImages(w io.Writer, buf []byte, segments []mosh.Segment, details bool) error {
	for _, seg := range segments {
		if ok, _ := mosh.GetMPFHeader(seg); !ok {
			continue
		}
		tree, err := mosh.GetMPFTree(seg)
		if err != nil {
			return err
		}
		images, err := mosh.MPFImages(tree, mosh.MPFOffset(seg))
		if err != nil {
			return err
		}
		for i, img := range images {
			if img.Offset == 0 {
				continue
			}
			fmt.Fprintf(w, "\nMPF image %d at offset %d, size %d\n", i+1, img.Offset, img.Size)
			start := int(img.Offset)
			if start >= len(buf) {
				fmt.Fprintln(w, warnFmt("offset is past the end of the file"))
				continue
			}
			end := min(start+int(img.Size), len(buf))
			printImage(w, buf[start:end], details)
		}
		return nil
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix(color.RedString("jpegmoshprint: "))
	details := flag.Bool("v", false, "show component details")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return
	}
	buf, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if !mosh.IsJPEGHeader(buf) {
		log.Fatalf("%s: not a JPEG file", flag.Arg(0))
	}
	segments := printImage(os.Stdout, buf, *details)
	if err := printMPFImages(os.Stdout, buf, segments, *details); err != nil {
		log.Fatal(err)
	}
}
