package protocol

// Cancel ends a line that lost bytes in transit. It is neither a hex digit
// nor a command byte, so the Parser reports the line as Invalid.
const Cancel byte = 0x18

// Resync feeds a bounded byte queue that a Parser drains. When the queue is
// full the byte is dropped and so is the rest of its line; the line is then
// closed with Cancel and Terminator so the fragments on either side of the
// gap are never joined into a different command.
//
// A Resync must have a single sender. The zero value is ready to use.
type Resync struct {
	skipping bool
}

// Push offers b to q without blocking and reports whether it was queued.
func (r *Resync) Push(q chan<- byte, b byte) bool {
	if !r.skipping {
		select {
		case q <- b:
			return true
		default:
			r.skipping = true
			return false
		}
	}
	if b != Terminator {
		return false
	}
	// only the receiver drains q, so the room seen here can only grow
	if cap(q)-len(q) < 2 {
		return false
	}
	q <- Cancel
	q <- Terminator
	r.skipping = false
	return true
}

// Skipping reports whether the current line is being discarded.
func (r *Resync) Skipping() bool { return r.skipping }
