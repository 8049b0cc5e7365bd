package archive

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip assembles a minimal stored-only archive with the given
// filename/content pairs, using trailing central-directory sizes as the
// spec requires (local headers carry zero sizes).
func buildZip(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var body bytes.Buffer
	type placed struct {
		name   string
		offset uint32
		size   uint32
	}
	var placedFiles []placed

	for _, name := range order {
		content := files[name]
		offset := uint32(body.Len())
		lfh := make([]byte, 30)
		binary.LittleEndian.PutUint32(lfh[0:4], lfhSignature)
		binary.LittleEndian.PutUint16(lfh[26:28], uint16(len(name)))
		body.Write(lfh)
		body.WriteString(name)
		body.WriteString(content)
		placedFiles = append(placedFiles, placed{name: name, offset: offset, size: uint32(len(content))})
	}

	cdOffset := uint32(body.Len())
	for _, p := range placedFiles {
		cdh := make([]byte, 46)
		binary.LittleEndian.PutUint32(cdh[0:4], cdhSignature)
		binary.LittleEndian.PutUint16(cdh[10:12], methodStored)
		binary.LittleEndian.PutUint32(cdh[20:24], p.size)
		binary.LittleEndian.PutUint32(cdh[24:28], p.size)
		binary.LittleEndian.PutUint16(cdh[28:30], uint16(len(p.name)))
		binary.LittleEndian.PutUint32(cdh[42:46], p.offset)
		body.Write(cdh)
		body.WriteString(p.name)
	}
	cdSize := uint32(body.Len()) - cdOffset

	eocd := make([]byte, 22)
	binary.LittleEndian.PutUint32(eocd[0:4], eocdSignature)
	binary.LittleEndian.PutUint16(eocd[10:12], uint16(len(placedFiles)))
	binary.LittleEndian.PutUint32(eocd[12:16], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:20], cdOffset)
	body.Write(eocd)

	return body.Bytes()
}

// TestArchiveOneStoredFile exercises §8 scenario 1: a 5-byte stored file
// "hi" (2 content bytes) lists as ["hi"], and OpenDocument fails
// MissingEntry because canvas.fig is absent.
func TestArchiveOneStoredFile(t *testing.T) {
	raw := buildZip(t, map[string]string{"hi": "hi"}, []string{"hi"})

	reader, err := Open(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, reader.ListContents())

	content, ok, err := reader.Extract("hi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", string(content))

	_, _, err = OpenDocument(raw)
	require.Error(t, err)
}

func TestArchiveRequiresCanvasFig(t *testing.T) {
	raw := buildZip(t, map[string]string{"canvas.fig": "payload-bytes"}, []string{"canvas.fig"})
	doc, warnings, err := OpenDocument(raw)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "payload-bytes", string(doc.Canvas))
}

func TestArchiveMalformedMetaJSONWarnsAndProceeds(t *testing.T) {
	raw := buildZip(t, map[string]string{
		"canvas.fig": "payload",
		"meta.json":  "{not json",
	}, []string{"canvas.fig", "meta.json"})
	doc, warnings, err := OpenDocument(raw)
	require.NoError(t, err)
	assert.Empty(t, doc.Metadata)
	require.Len(t, warnings, 1)
}

func TestArchiveImagesIndexedLowercasedBasename(t *testing.T) {
	raw := buildZip(t, map[string]string{
		"canvas.fig":        "payload",
		"images/ABCDEF1234": "bytes",
	}, []string{"canvas.fig", "images/ABCDEF1234"})
	doc, _, err := OpenDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), doc.Images["abcdef1234"])
}

func TestArchiveDirectoryEntriesSkipped(t *testing.T) {
	raw := buildZip(t, map[string]string{
		"canvas.fig": "payload",
		"images/":    "",
	}, []string{"canvas.fig", "images/"})
	reader, err := Open(raw)
	require.NoError(t, err)
	assert.NotContains(t, reader.ListContents(), "images/")
}

func TestFindEOCDNotArchive(t *testing.T) {
	_, err := Open([]byte("not a zip file at all"))
	assert.Error(t, err)
}
