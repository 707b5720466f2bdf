package jpegmosh

import (
	"bytes"

	tiff "github.com/garyhouston/tiff66"
	"github.com/pkg/errors"
)

// APP1 Exif and APP2 MPF segments hold TIFF structures. They are among the
// segments the corruption engine strips; these helpers let the tools show
// what goes.

// Exif header, as found in a JPEG APP1 segment.
var exifheader = []byte("Exif\000\000")

// Size of an Exif header.
const ExifHeaderSize = 6

// MPF header, as found in a JPEG APP2 segment.
var mpfheader = []byte("MPF\000")

// Size of a MPF header.
const MPFHeaderSize = 4

// Offset of the TIFF data from the start of an APPn segment: marker, length
// field, then the identifier.
const appDataStart = 4

// Check if an APP1 segment starts with an Exif header. Returns a flag and
// the position of the TIFF header in the segment bytes.
func GetExifHeader(seg Segment) (bool, int) {
	b := seg.Bytes
	if seg.Marker == APP0+1 && len(b) >= appDataStart+ExifHeaderSize && bytes.Equal(b[appDataStart:appDataStart+ExifHeaderSize], exifheader) {
		return true, appDataStart + ExifHeaderSize
	}
	return false, 0
}

// Check if an APP2 segment starts with a Multi-Picture Format (MPF) header.
// Returns a flag and the position of the TIFF header in the segment bytes.
func GetMPFHeader(seg Segment) (bool, int) {
	b := seg.Bytes
	if seg.Marker == APP0+2 && len(b) >= appDataStart+MPFHeaderSize && bytes.Equal(b[appDataStart:appDataStart+MPFHeaderSize], mpfheader) {
		return true, appDataStart + MPFHeaderSize
	}
	return false, 0
}

// getTree reads a TIFF structure starting at buf[0].
func getTree(buf []byte, space tiff.TagSpace) (*tiff.IFDNode, error) {
	if len(buf) < tiff.HeaderSize {
		return nil, errors.Wrap(ErrNoHeader, "short TIFF header")
	}
	valid, order, ifdpos := tiff.GetHeader(buf)
	if !valid {
		return nil, errors.Wrap(ErrNoHeader, "invalid TIFF header")
	}
	node, err := tiff.GetIFDTree(buf, order, ifdpos, space)
	if err != nil {
		return nil, errors.Wrap(err, "reading IFD tree")
	}
	return node, nil
}

// GetExifTree reads the TIFF structure of an APP1 Exif segment. The tree
// refers to a copy of the segment data.
func GetExifTree(seg Segment) (*tiff.IFDNode, error) {
	ok, next := GetExifHeader(seg)
	if !ok {
		return nil, errors.Wrap(ErrNoHeader, "Exif")
	}
	buf := make([]byte, len(seg.Bytes)-next)
	copy(buf, seg.Bytes[next:])
	return getTree(buf, tiff.TIFFSpace)
}

// GetMPFTree reads the TIFF structure of an APP2 MPF segment. The tree
// refers to a copy of the segment data.
func GetMPFTree(seg Segment) (*tiff.IFDNode, error) {
	ok, next := GetMPFHeader(seg)
	if !ok {
		return nil, errors.Wrap(ErrNoHeader, "MPF")
	}
	buf := make([]byte, len(seg.Bytes)-next)
	copy(buf, seg.Bytes[next:])
	return getTree(buf, tiff.MPFIndexSpace)
}

// MPFOffset returns the file offset that MPF image offsets in seg are
// relative to: the first byte following the MPF header.
func MPFOffset(seg Segment) int {
	return seg.Offset + appDataStart + MPFHeaderSize
}

// CountIFDs returns the number of IFDs chained from node.
func CountIFDs(node *tiff.IFDNode) int {
	n := 0
	for ; node != nil; node = node.Next {
		n++
	}
	return n
}

// Tags in the MPFIndex IFD.
const (
	MPFVersion        = 0xB000
	MPFNumberOfImages = 0xB001
	MPFEntry          = 0xB002
	MPFImageUIDList   = 0xB003
	MPFTotalFrames    = 0xB004
)

// Mapping from MPFIndex tags to strings.
var MPFIndexTagNames = map[tiff.Tag]string{
	MPFVersion:        "MPFVersion",
	MPFNumberOfImages: "MPFNumberOfImages",
	MPFEntry:          "MPFEntry",
	MPFImageUIDList:   "MPFImageUIDList",
	MPFTotalFrames:    "MPFTotalFrames",
}

const maxMPFImages = 256

// MPFImage is one entry of the MPF image list.
type MPFImage struct {
	Size   uint32
	Offset uint32 // absolute file offset, 0 for the first image
}

// MPFImages lists the images of an MPF index tree. base is the value from
// MPFOffset for the segment the tree came from.
func MPFImages(tree *tiff.IFDNode, base int) ([]MPFImage, error) {
	if _, ok := tree.SpaceRec.(*tiff.MPFIndexSpaceRec); !ok {
		return nil, errors.New("MPF segment doesn't contain Index")
	}
	order := tree.Order
	var images []MPFImage
	for _, f := range tree.Fields {
		switch f.Tag {
		case MPFNumberOfImages:
			n := f.Long(0, order)
			if n > maxMPFImages {
				return nil, errors.Errorf("MPF claims %d images", n)
			}
			images = make([]MPFImage, n)
		case MPFEntry:
			// 16 byte entries: attributes, size, offset, dependencies.
			if uint32(len(f.Data)) < uint32(len(images))*16 {
				return nil, errors.Errorf("MPFEntry holds %d bytes for %d images", len(f.Data), len(images))
			}
			for i := range images {
				images[i].Size = f.Long(uint32(i)*4+1, order)
				if off := f.Long(uint32(i)*4+2, order); off > 0 {
					images[i].Offset = off + uint32(base)
				}
			}
		}
	}
	return images, nil
}
