package msgpass

// slot is one direction of an edge.
type slot[M any] struct {
	current    M
	pending    M
	hasCurrent bool
	hasPending bool
	sent       int // messages accepted by Send
	received   int // messages promoted by Tick
}

// Edge connects two nodes and buffers one message per direction.
//
// Send writes the pending slot of the direction away from the sender; Tick
// promotes pending to current. A node therefore only ever reads messages
// that were finalized at the previous round boundary.
type Edge[M Message[M], R any] struct {
	a, b *Node[M, R]
	// dir[0] carries a → b, dir[1] carries b → a.
	dir [2]slot[M]
}

// Nodes returns both endpoints.
func (e *Edge[M, R]) Nodes() (*Node[M, R], *Node[M, R]) { return e.a, e.b }

// Other returns the endpoint that is not n, or nil if n is not an endpoint.
func (e *Edge[M, R]) Other(n *Node[M, R]) *Node[M, R] {
	switch n {
	case e.a:
		return e.b
	case e.b:
		return e.a
	}
	return nil
}

// outbound returns the slot n writes to, or nil if n is not an endpoint.
func (e *Edge[M, R]) outbound(n *Node[M, R]) *slot[M] {
	switch n {
	case e.a:
		return &e.dir[0]
	case e.b:
		return &e.dir[1]
	}
	return nil
}

// inbound returns the slot n reads from, or nil if n is not an endpoint.
func (e *Edge[M, R]) inbound(n *Node[M, R]) *slot[M] {
	switch n {
	case e.a:
		return &e.dir[1]
	case e.b:
		return &e.dir[0]
	}
	return nil
}

// Send queues m for delivery to the other endpoint at the next Tick and
// charges its bytes to sender. It returns false, and queues nothing, when m
// equals the message the receiver currently holds or sender is not an
// endpoint.
func (e *Edge[M, R]) Send(sender *Node[M, R], m M) bool {
	s := e.outbound(sender)
	if s == nil {
		return false
	}
	if s.hasCurrent && s.current.Equal(m) {
		return false
	}
	s.pending = m
	s.hasPending = true
	s.sent++
	sender.sentBytes += m.Bytes()
	return true
}

// Message returns the current message addressed to receiver and whether
// one has been delivered.
func (e *Edge[M, R]) Message(receiver *Node[M, R]) (M, bool) {
	s := e.inbound(receiver)
	if s == nil || !s.hasCurrent {
		var zero M
		return zero, false
	}
	return s.current, true
}

// Tick promotes the pending messages of both directions. A receiver whose
// current message changed is marked updated.
func (e *Edge[M, R]) Tick() {
	for d := range e.dir {
		s := &e.dir[d]
		if !s.hasPending {
			continue
		}
		changed := !s.hasCurrent || !s.current.Equal(s.pending)
		s.current = s.pending
		s.hasCurrent = true
		var zero M
		s.pending = zero
		s.hasPending = false
		s.received++
		if changed {
			if d == 0 {
				e.b.updated = true
			} else {
				e.a.updated = true
			}
		}
	}
}

// hasSent reports whether n has sent anything on e.
func (e *Edge[M, R]) hasSent(n *Node[M, R]) bool {
	s := e.outbound(n)
	return s != nil && s.sent > 0
}

// hasReceived reports whether a message has been delivered to n on e.
func (e *Edge[M, R]) hasReceived(n *Node[M, R]) bool {
	s := e.inbound(n)
	return s != nil && s.received > 0
}
