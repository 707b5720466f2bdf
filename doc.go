/*
Package jpegmosh splits JPEG files into their marker segments and corrupts
selected segments to produce glitched images that still display
("datamoshing"). Nothing is decoded: segments are found from markers and
length fields, and the entropy-coded scan data is assumed to run to the
EOI marker at the end of the file.

Example: Print the markers and segment lengths.

   package main

   import (
   	"fmt"
   	"log"
   	"os"

   	mosh "github.com/knobs-dials/jpeg-mosh"
   )

   func main() {
   	if len(os.Args) != 2 {
   		fmt.Printf("Usage: %s file\n", os.Args[0])
   		return
   	}
   	buf, err := os.ReadFile(os.Args[1])
   	if err != nil {
   		log.Fatal(err)
   	}
   	for seg := range mosh.Segments(buf) {
   		fmt.Printf("%s, %d bytes, %s\n", seg.Marker.Name(), seg.Length, seg.Kind)
   	}
   }

Example: Corrupt quantization tables and image data until the result still
decodes.

   package main

   import (
   	"fmt"
   	"log"
   	"os"

   	mosh "github.com/knobs-dials/jpeg-mosh"
   )

   func main() {
   	if len(os.Args) != 3 {
   		fmt.Printf("Usage: %s infile outfile\n", os.Args[0])
   		return
   	}
   	buf, err := os.ReadFile(os.Args[1])
   	if err != nil {
   		log.Fatal(err)
   	}
   	params := mosh.DefaultParams()
   	params.Image = mosh.ImagePresets["lots"]
   	params.Validate = true
   	out, err := mosh.Corrupt(buf, params)
   	if err != nil {
   		log.Fatal(err)
   	}
   	if err := os.WriteFile(os.Args[2], out, 0644); err != nil {
   		log.Fatal(err)
   	}
   }

The scanner is deliberately simple. A marker it doesn't know is assumed to
carry a length field, which desynchronizes the scan if it doesn't; the scan
stops quietly at the first position that doesn't hold 0xFF; and a length
field claiming more than is left yields a segment clamped to the buffer.
Only running out of validation attempts in Corrupt is reported as an error.
*/
package jpegmosh
