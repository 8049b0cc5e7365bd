// Package archive parses the design-tool container: a directory that
// relies on trailing size descriptors (a central directory located at
// end-of-file), and decompresses its entries.
package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"

	"github.com/oderaine/figread/ferrors"
)

const (
	eocdSignature = 0x06054b50
	cdhSignature  = 0x02014b50
	lfhSignature  = 0x04034b50

	eocdMinSize    = 22
	maxCommentSize = 65535

	methodStored  = 0
	methodDeflate = 8
)

// centralEntry is one parsed central-directory record.
type centralEntry struct {
	Name             string
	Method           uint16
	CompressedSize   uint32
	UncompressedSize uint32
	LocalHeaderOffset uint32
}

// Reader gives access to the container's raw entries before decompression,
// primarily to satisfy ListContents (§8 scenario 1: "hi" -> ["hi"]).
type Reader struct {
	raw     []byte
	entries []centralEntry
}

// Open locates the end-of-central-directory record and parses every
// central-directory entry it describes.
func Open(raw []byte) (*Reader, error) {
	eocdOffset, err := findEOCD(raw)
	if err != nil {
		return nil, err
	}
	cdOffset := binary.LittleEndian.Uint32(raw[eocdOffset+16 : eocdOffset+20])
	entryCount := binary.LittleEndian.Uint16(raw[eocdOffset+10 : eocdOffset+12])

	if int(cdOffset) > len(raw) {
		return nil, ferrors.NewError(ferrors.Corrupt, fmt.Errorf("archive: central directory offset %d beyond file size %d", cdOffset, len(raw)))
	}

	entries := make([]centralEntry, 0, entryCount)
	pos := int(cdOffset)
	for i := uint16(0); i < entryCount; i++ {
		entry, next, err := parseCentralEntry(raw, pos)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		pos = next
	}
	return &Reader{raw: raw, entries: entries}, nil
}

// findEOCD scans backward from end-of-file for the fixed 4-byte EoCD
// signature, bounded by the minimum EoCD size and the maximum comment
// length.
func findEOCD(raw []byte) (int, error) {
	if len(raw) < eocdMinSize {
		return 0, ferrors.NewError(ferrors.NotArchive, fmt.Errorf("archive: file too small (%d bytes) to contain an end-of-central-directory record", len(raw)))
	}
	lo := len(raw) - eocdMinSize - maxCommentSize
	if lo < 0 {
		lo = 0
	}
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], eocdSignature)
	for i := len(raw) - eocdMinSize; i >= lo; i-- {
		if bytes.Equal(raw[i:i+4], sig[:]) {
			return i, nil
		}
	}
	return 0, ferrors.NewError(ferrors.NotArchive, fmt.Errorf("archive: end-of-central-directory marker not found"))
}

func parseCentralEntry(raw []byte, pos int) (centralEntry, int, error) {
	if pos+46 > len(raw) {
		return centralEntry{}, 0, ferrors.NewErrorAt(ferrors.Corrupt, int64(pos), fmt.Errorf("archive: truncated central directory record"))
	}
	sig := binary.LittleEndian.Uint32(raw[pos : pos+4])
	if sig != cdhSignature {
		return centralEntry{}, 0, ferrors.NewErrorAt(ferrors.NotArchive, int64(pos), fmt.Errorf("archive: invalid central directory entry signature 0x%08x", sig))
	}
	method := binary.LittleEndian.Uint16(raw[pos+10 : pos+12])
	compSize := binary.LittleEndian.Uint32(raw[pos+20 : pos+24])
	uncompSize := binary.LittleEndian.Uint32(raw[pos+24 : pos+28])
	nameLen := binary.LittleEndian.Uint16(raw[pos+28 : pos+30])
	extraLen := binary.LittleEndian.Uint16(raw[pos+30 : pos+32])
	commentLen := binary.LittleEndian.Uint16(raw[pos+32 : pos+34])
	localOffset := binary.LittleEndian.Uint32(raw[pos+42 : pos+46])

	nameStart := pos + 46
	nameEnd := nameStart + int(nameLen)
	if nameEnd > len(raw) {
		return centralEntry{}, 0, ferrors.NewErrorAt(ferrors.Corrupt, int64(pos), fmt.Errorf("archive: truncated filename in central directory entry"))
	}
	name := string(raw[nameStart:nameEnd])

	next := nameEnd + int(extraLen) + int(commentLen)
	return centralEntry{
		Name:              name,
		Method:            method,
		CompressedSize:    compSize,
		UncompressedSize:  uncompSize,
		LocalHeaderOffset: localOffset,
	}, next, nil
}

// ListContents returns every non-directory entry name, in central
// directory order.
func (r *Reader) ListContents() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// Extract returns the decompressed bytes of the named entry.
func (r *Reader) Extract(name string) ([]byte, bool, error) {
	for _, e := range r.entries {
		if e.Name != name {
			continue
		}
		if strings.HasSuffix(e.Name, "/") {
			return nil, false, nil
		}
		raw, err := r.extractEntry(e)
		if err != nil {
			return nil, true, err
		}
		return raw, true, nil
	}
	return nil, false, nil
}

func (r *Reader) extractEntry(e centralEntry) ([]byte, error) {
	pos := int(e.LocalHeaderOffset)
	if pos+30 > len(r.raw) {
		return nil, ferrors.NewErrorAt(ferrors.Corrupt, int64(pos), fmt.Errorf("archive: truncated local file header for %q", e.Name))
	}
	sig := binary.LittleEndian.Uint32(r.raw[pos : pos+4])
	if sig != lfhSignature {
		return nil, ferrors.NewErrorAt(ferrors.NotArchive, int64(pos), fmt.Errorf("archive: invalid local file header signature for %q", e.Name))
	}
	nameLen := binary.LittleEndian.Uint16(r.raw[pos+26 : pos+28])
	extraLen := binary.LittleEndian.Uint16(r.raw[pos+28 : pos+30])
	dataStart := pos + 30 + int(nameLen) + int(extraLen)

	compSize := int(e.CompressedSize)
	dataEnd := dataStart + compSize
	if dataEnd > len(r.raw) || dataStart > dataEnd {
		return nil, ferrors.NewErrorAt(ferrors.Corrupt, int64(dataStart), fmt.Errorf("archive: entry %q compressed size %d exceeds file bounds", e.Name, compSize))
	}
	compressed := r.raw[dataStart:dataEnd]

	switch e.Method {
	case methodStored:
		return compressed, nil
	case methodDeflate:
		return inflate(compressed)
	default:
		return nil, ferrors.NewError(ferrors.UnsupportedCompression, fmt.Errorf("archive: entry %q uses unsupported compression method %d", e.Name, e.Method))
	}
}

// Document groups the artifacts a canvas.fig container produces: the
// canvas payload bytes, an optional thumbnail, the image-hash map, and any
// metadata read from meta.json.
type Document struct {
	Canvas    []byte
	Thumbnail []byte
	Images    map[string][]byte
	Metadata  map[string]string
}

// OpenDocument extracts and decompresses the required and optional
// entries from a raw archive, per §4.1's algorithm.
func OpenDocument(raw []byte) (*Document, []ferrors.Warning, error) {
	var warnings []ferrors.Warning
	reader, err := Open(raw)
	if err != nil {
		return nil, warnings, err
	}

	canvas, ok, err := reader.Extract("canvas.fig")
	if err != nil {
		return nil, warnings, err
	}
	if !ok {
		return nil, warnings, ferrors.NewError(ferrors.MissingEntry, fmt.Errorf("archive: required entry canvas.fig is absent"))
	}

	doc := &Document{Canvas: canvas, Images: make(map[string][]byte), Metadata: map[string]string{}}

	if thumb, ok, err := reader.Extract("thumbnail.png"); err == nil && ok {
		doc.Thumbnail = thumb
	}

	if metaRaw, ok, err := reader.Extract("meta.json"); err != nil {
		warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "meta.json failed to decompress: %v", err))
	} else if ok {
		m, err := decodeMetaJSON(metaRaw)
		if err != nil {
			warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "meta.json is malformed, proceeding with empty metadata: %v", err))
		} else {
			doc.Metadata = m
		}
	}

	for _, name := range reader.ListContents() {
		if !strings.HasPrefix(name, "images/") {
			continue
		}
		data, ok, err := reader.Extract(name)
		if err != nil {
			warnings = append(warnings, ferrors.Warnf(ferrors.Corrupt, "image entry %q failed to decompress: %v", name, err))
			continue
		}
		if !ok {
			continue
		}
		base := name[strings.LastIndex(name, "/")+1:]
		hash := strings.ToLower(base)
		doc.Images[hash] = data
	}

	return doc, warnings, nil
}

// decodeMetaJSON sniffs meta.json's byte-order mark / charset before
// unmarshaling, since the source tool has been observed to write a UTF-8
// BOM on some platforms; charset.DetermineEncoding falls back to identity
// UTF-8 when it finds nothing to transcode.
func decodeMetaJSON(raw []byte) (map[string]string, error) {
	enc, _, _ := charset.DetermineEncoding(raw, "application/json")
	if enc != nil && enc != encoding.Nop {
		if transcoded, err := enc.NewDecoder().Bytes(raw); err == nil {
			raw = transcoded
		}
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
