// Package scene holds the typed scene graph: the Node/Id data model, the
// flat-array-to-tree builder, and the component-instance override resolver.
package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Id is the pair (session, local) that keys every node, image lookup, and
// query in a document. It is globally unique within a single document.
type Id struct {
	Session uint32
	Local   uint32
}

// String formats the Id in its canonical "session:local" form.
func (id Id) String() string {
	return fmt.Sprintf("%d:%d", id.Session, id.Local)
}

// ParseId accepts both the canonical "session:local" form and the
// alternate "session-local" dash form.
func ParseId(s string) (Id, error) {
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return Id{}, fmt.Errorf("scene: malformed id %q", s)
	}
	session, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Id{}, fmt.Errorf("scene: malformed id session %q: %w", s, err)
	}
	local, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Id{}, fmt.Errorf("scene: malformed id local %q: %w", s, err)
	}
	return Id{Session: uint32(session), Local: uint32(local)}, nil
}

// Zero reports whether id is the unset zero value.
func (id Id) Zero() bool { return id.Session == 0 && id.Local == 0 }
