package visit

import "github.com/dgallion1/docpass/internal/doctree"

type action int

const (
	actContinue action = iota
	actSkipChildren
	actReplace
	actStop
)

// Command is a handler's instruction to the walker. The zero value is Continue.
type Command struct {
	act  action
	node doctree.Node
}

var (
	// Continue descends into the node's children (if any) with no mutation.
	Continue = Command{}
	// SkipChildren leaves the node in place but does not walk its children.
	SkipChildren = Command{act: actSkipChildren}
	// Stop ends the walk after the current node.
	Stop = Command{act: actStop}
)

// Replace substitutes the visited node with n at the same position among its
// siblings. The replacement is not walked and the old node's children are dropped.
func Replace(n doctree.Node) Command {
	if n == nil {
		panic("visit: Replace called with nil node")
	}
	return Command{act: actReplace, node: n}
}

// Replacement returns the node carried by a Replace command.
func (c Command) Replacement() (doctree.Node, bool) {
	return c.node, c.act == actReplace
}

func (c Command) String() string {
	switch c.act {
	case actSkipChildren:
		return "skip_children"
	case actReplace:
		return "replace(" + c.node.Kind().String() + ")"
	case actStop:
		return "stop"
	}
	return "continue"
}
