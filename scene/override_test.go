package scene

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveInstanceAppliesCharacterOverride exercises §8 scenario 3:
// INSTANCE 5:1 -> symbol 4:1(FRAME) -> 4:2(TEXT chars="old"), with an
// override on 4:2's key replacing the text.
func TestResolveInstanceAppliesCharacterOverride(t *testing.T) {
	frameId := mustId(t, "4:1")
	textId := mustId(t, "4:2")
	instanceId := mustId(t, "5:1")

	textKey := []byte{0xAA, 0xBB}
	text := &Node{Id: textId, Type: TypeText, Visible: true, OverrideKey: textKey}
	text.Text.Characters = "old"
	frame := &Node{Id: frameId, Type: TypeFrame, Visible: true, Children: []*Node{text}}
	text.Parent = frame

	byId := ById{frameId: frame, textId: text}

	newChars := "new"
	instance := &Node{
		Id:   instanceId,
		Type: TypeInstance,
		Component: ComponentLink{
			SymbolId: frameId,
			SymbolOverrides: []OverrideEntry{
				{GuidPath: hex.EncodeToString(textKey), Fields: OverrideFields{Characters: &newChars}},
			},
		},
	}

	clone, warnings, err := ResolveInstance(instance, byId, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, clone.Children, 1)
	assert.Equal(t, "new", clone.Children[0].Text.Characters)

	// the symbol's own arena is untouched
	assert.Equal(t, "old", text.Text.Characters)
}

func TestResolveInstanceBreaksSelfReferenceCycle(t *testing.T) {
	symId := mustId(t, "1:1")
	instId := mustId(t, "1:2")
	symbol := &Node{Id: symId, Type: TypeComponent}
	byId := ById{symId: symbol}
	instance := &Node{Id: instId, Type: TypeInstance, Component: ComponentLink{SymbolId: symId}}

	visited := map[Id]bool{symId: true}
	clone, warnings, err := ResolveInstance(instance, byId, visited)
	require.NoError(t, err)
	assert.Nil(t, clone)
	require.Len(t, warnings, 1)
}

func TestResolveInstanceUnknownSymbolIsNotFound(t *testing.T) {
	instance := &Node{Id: mustId(t, "1:2"), Type: TypeInstance, Component: ComponentLink{SymbolId: mustId(t, "9:9")}}
	_, _, err := ResolveInstance(instance, ById{}, nil)
	assert.Error(t, err)
}
