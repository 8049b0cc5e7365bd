package figread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oderaine/figread/kiwi"
	"github.com/oderaine/figread/scene"
)

func guidRecord(session, local uint64) kiwi.Record {
	return kiwi.Record{Fields: map[string]kiwi.Value{
		"sessionID": kiwi.Uint(session),
		"localID":   kiwi.Uint(local),
	}}
}

func TestNodeChangesFromValueBuildsDocumentAndFrame(t *testing.T) {
	docChange := kiwi.Record{Fields: map[string]kiwi.Value{
		"guid": guidRecord(0, 1),
		"type": kiwi.Str("DOCUMENT"),
		"name": kiwi.Str("Document"),
	}}
	frameChange := kiwi.Record{Fields: map[string]kiwi.Value{
		"guid":    guidRecord(0, 2),
		"type":    kiwi.Str("FRAME"),
		"name":    kiwi.Str("Page 1"),
		"visible": kiwi.Bool(true),
		"opacity": kiwi.Float(1),
		"size":    kiwi.Record{Fields: map[string]kiwi.Value{"x": kiwi.Float(100), "y": kiwi.Float(200)}},
		"parentIndex": kiwi.Record{Fields: map[string]kiwi.Value{
			"guid":     guidRecord(0, 1),
			"position": kiwi.Str("a"),
		}},
	}}
	root := kiwi.Record{Fields: map[string]kiwi.Value{
		"nodeChanges": kiwi.Sequence{docChange, frameChange},
	}}

	changes, warnings, err := nodeChangesFromValue(root)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, changes, 2)

	assert.Equal(t, scene.TypeDocument, changes[0].Node.Type)
	assert.False(t, changes[0].HasParent)

	assert.Equal(t, scene.TypeFrame, changes[1].Node.Type)
	assert.Equal(t, "Page 1", changes[1].Node.Name)
	assert.Equal(t, scene.Size{W: 100, H: 200}, changes[1].Node.Size)
	require.True(t, changes[1].HasParent)
	assert.Equal(t, scene.Id{Session: 0, Local: 1}, changes[1].ParentGuid)
	assert.Equal(t, "a", changes[1].Position)
}

func TestNodeChangesFromValueRejectsNonRecordRoot(t *testing.T) {
	_, _, err := nodeChangesFromValue(kiwi.Str("not a record"))
	require.Error(t, err)
}

func TestNodeChangesFromValueSkipsNonRecordElements(t *testing.T) {
	root := kiwi.Record{Fields: map[string]kiwi.Value{
		"nodeChanges": kiwi.Sequence{kiwi.Str("garbage")},
	}}
	changes, warnings, err := nodeChangesFromValue(root)
	require.NoError(t, err)
	assert.Empty(t, changes)
	require.Len(t, warnings, 1)
}

func TestPaintFromRecordSolidAndUnrenderable(t *testing.T) {
	solid := paintFromRecord(kiwi.Record{Fields: map[string]kiwi.Value{
		"type":    kiwi.Str("SOLID"),
		"visible": kiwi.Bool(true),
		"opacity": kiwi.Float(1),
		"color": kiwi.Record{Fields: map[string]kiwi.Value{
			"r": kiwi.Float(1), "g": kiwi.Float(0), "b": kiwi.Float(0), "a": kiwi.Float(1),
		}},
	}})
	assert.Equal(t, scene.PaintSolid, solid.Kind)
	assert.Equal(t, scene.RGBA{R: 1, G: 0, B: 0, A: 1}, solid.Color)

	gradient := paintFromRecord(kiwi.Record{Fields: map[string]kiwi.Value{
		"type": kiwi.Str("GRADIENT_LINEAR"),
	}})
	assert.Equal(t, scene.PaintUnrenderable, gradient.Kind)
	assert.Equal(t, "GRADIENT_LINEAR", gradient.Variant)
}

func TestGuidPathFieldJoinsHexSegments(t *testing.T) {
	r := kiwi.Record{Fields: map[string]kiwi.Value{
		"guidPath": kiwi.Sequence{kiwi.Bytes{0x01, 0x02}, kiwi.Bytes{0xff}},
	}}
	assert.Equal(t, "0102>ff", guidPathField(r))
}

func TestCornerFieldPrefersPerCornerRadii(t *testing.T) {
	r := kiwi.Record{Fields: map[string]kiwi.Value{
		"rectangleCornerRadii": kiwi.Sequence{kiwi.Float(1), kiwi.Float(2), kiwi.Float(3), kiwi.Float(4)},
		"cornerRadius":         kiwi.Float(9),
	}}
	c := cornerField(r)
	assert.False(t, c.Uniform)
	assert.Equal(t, [4]float64{1, 2, 3, 4}, c.PerCorner)
}

func TestBlobsFromValueAcceptsRawBytesAndRecords(t *testing.T) {
	root := kiwi.Record{Fields: map[string]kiwi.Value{
		"blobs": kiwi.Sequence{
			kiwi.Bytes{1, 2, 3},
			kiwi.Record{Fields: map[string]kiwi.Value{"bytes": kiwi.Bytes{4, 5}}},
		},
	}}
	blobs := blobsFromValue(root)
	require.Len(t, blobs, 2)
	assert.Equal(t, []byte{1, 2, 3}, blobs[0])
	assert.Equal(t, []byte{4, 5}, blobs[1])
}
