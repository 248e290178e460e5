package imgutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies an image container recognised by its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindGIF
	KindTIFF
	KindBMP
)

func (k Kind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindGIF:
		return "gif"
	case KindTIFF:
		return "tiff"
	case KindBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 8

// ErrShortHeader is returned when a file is too small to carry any known signature.
var ErrShortHeader = errors.New("header too short")

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gif87Sig  = []byte("GIF87a")
	gif89Sig  = []byte("GIF89a")
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	bmpSig    = []byte("BM")
)

// DetectHeader inspects the first HeaderSize bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, ErrShortHeader
	}

	switch {
	case hasPrefix(header, pngSig):
		return KindPNG, nil
	case hasPrefix(header, jpegSig):
		return KindJPEG, nil
	case hasPrefix(header, gif87Sig), hasPrefix(header, gif89Sig):
		return KindGIF, nil
	case hasPrefix(header, tiffSigLE), hasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case hasPrefix(header, bmpSig):
		return KindBMP, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the header of the file at path to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return KindUnknown, ErrShortHeader
		}
		return KindUnknown, err
	}

	return DetectHeader(header)
}

// HasExt reports whether path ends in one of exts, compared case-insensitively.
// Entries in exts may be given with or without the leading dot.
func HasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, want := range exts {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
