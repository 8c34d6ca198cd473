package bytecode

// Node holds one instruction inside a List.
type Node struct {
	Insn Instruction

	prev *Node
	next *Node
	list *List
}

// Next returns the following node or nil.
func (n *Node) Next() *Node { return n.next }

// Prev returns the preceding node or nil.
func (n *Node) Prev() *Node { return n.prev }

// List returns the list the node belongs to, nil while detached.
func (n *Node) List() *List { return n.list }

// Opcode returns the opcode of the held instruction.
func (n *Node) Opcode() Opcode { return n.Insn.Opcode() }

// List is a doubly linked instruction stream. Nodes keep their identity when
// other nodes are inserted around them, so jump targets and saved cursors stay
// valid across edits.
type List struct {
	first    *Node
	last     *Node
	size     int
	modified bool
}

// NewList builds a list holding the given instructions in order.
func NewList(insns ...Instruction) *List {
	l := &List{}
	for _, insn := range insns {
		l.Append(insn)
	}

	l.modified = false

	return l
}

// Len returns the number of nodes, labels included.
func (l *List) Len() int { return l.size }

// First returns the first node or nil.
func (l *List) First() *Node { return l.first }

// Last returns the last node or nil.
func (l *List) Last() *Node { return l.last }

// Modified reports whether instructions were inserted since the list was read.
func (l *List) Modified() bool { return l.modified }

// Append adds an instruction at the end of the list.
func (l *List) Append(insn Instruction) *Node {
	n := &Node{Insn: insn}
	l.insertBefore(nil, n)

	return n
}

// AppendNode adds an existing detached node, typically a label created ahead
// of time as a jump target.
func (l *List) AppendNode(n *Node) {
	l.insertBefore(nil, n)
}

// InsertBefore inserts insn in front of mark. A nil mark appends.
func (l *List) InsertBefore(mark *Node, insn Instruction) *Node {
	n := &Node{Insn: insn}
	l.insertBefore(mark, n)

	return n
}

func (l *List) insertBefore(mark, n *Node) {
	if n.list != nil {
		panic("bytecode: node already belongs to a list")
	}

	n.list = l
	l.size++
	l.modified = true

	if mark == nil {
		n.prev = l.last
		if l.last != nil {
			l.last.next = n
		} else {
			l.first = n
		}

		l.last = n

		return
	}

	n.next = mark
	n.prev = mark.prev

	if mark.prev != nil {
		mark.prev.next = n
	} else {
		l.first = n
	}

	mark.prev = n
}

// Nodes returns a snapshot of the nodes in order.
func (l *List) Nodes() []*Node {
	nodes := make([]*Node, 0, l.size)
	for n := l.first; n != nil; n = n.next {
		nodes = append(nodes, n)
	}

	return nodes
}

// Index returns the position of n in the list or -1.
func (l *List) Index(n *Node) int {
	i := 0
	for cur := l.first; cur != nil; cur = cur.next {
		if cur == n {
			return i
		}

		i++
	}

	return -1
}

// Cursor returns a cursor positioned before the first node.
func (l *List) Cursor() *Cursor {
	return &Cursor{list: l, next: l.first}
}

// CursorBefore returns a cursor positioned immediately before n.
func (l *List) CursorBefore(n *Node) *Cursor {
	return &Cursor{list: l, next: n}
}

// CursorAfter returns a cursor positioned immediately after n.
func (l *List) CursorAfter(n *Node) *Cursor {
	return &Cursor{list: l, next: n.next}
}

// CursorEnd returns a cursor positioned after the last node.
func (l *List) CursorEnd() *Cursor {
	return &Cursor{list: l}
}

// Cursor is a bidirectional position between two nodes of a List. It is
// anchored to the node that follows it, so insertions made elsewhere never
// move it away from that node.
type Cursor struct {
	list *List
	next *Node
}

// HasNext reports whether Next would return a node.
func (c *Cursor) HasNext() bool { return c.next != nil }

// Next returns the node after the cursor and steps over it.
func (c *Cursor) Next() *Node {
	n := c.next
	if n != nil {
		c.next = n.next
	}

	return n
}

// Peek returns the node after the cursor without moving.
func (c *Cursor) Peek() *Node { return c.next }

// HasPrevious reports whether Previous would return a node.
func (c *Cursor) HasPrevious() bool { return c.previous() != nil }

// Previous returns the node before the cursor and steps back over it.
func (c *Cursor) Previous() *Node {
	p := c.previous()
	if p != nil {
		c.next = p
	}

	return p
}

func (c *Cursor) previous() *Node {
	if c.next == nil {
		return c.list.last
	}

	return c.next.prev
}

// Add inserts insn at the cursor. The cursor ends up after the new node, so
// consecutive calls emit instructions in call order.
func (c *Cursor) Add(insn Instruction) *Node {
	return c.list.InsertBefore(c.next, insn)
}
