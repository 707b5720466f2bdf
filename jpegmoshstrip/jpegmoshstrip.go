package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	mosh "github.com/knobs-dials/jpeg-mosh"
)

// strip writes the segments of buf to path, leaving out APP1 to APP15.
// It returns the number of bytes removed.
func strip(path string, buf []byte) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer out.Close()
	stripped := mosh.Strip(buf)
	writer := bufio.NewWriter(out)
	if _, err := writer.Write(stripped); err != nil {
		return 0, err
	}
	if err := writer.Flush(); err != nil {
		return 0, err
	}
	return len(buf) - len(stripped), out.Close()
}

// Make a copy of a JPEG file with the APP1 to APP15 segments removed, the
// same segments the corruption drops.
func main() {
	log.SetFlags(0)
	log.SetPrefix(color.RedString("jpegmoshstrip: "))
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s infile outfile\n", os.Args[0])
		return
	}
	buf, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if !mosh.IsJPEGHeader(buf) {
		log.Fatalf("%s: not a JPEG file", os.Args[1])
	}
	n, err := strip(os.Args[2], buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s bytes removed\n", color.YellowString("%d", n))
}
