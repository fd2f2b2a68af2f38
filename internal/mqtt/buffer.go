package mqtt

import "log"

// DefaultOutboxSize bounds the messages held while the broker is unreachable.
const DefaultOutboxSize = 100

// pending is a serialized message waiting for the connection to return.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a bounded FIFO of pending messages. When full, the oldest
// message is discarded. Callers synchronize access.
type outbox struct {
	msgs    []pending
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	if limit <= 0 {
		limit = DefaultOutboxSize
	}
	return &outbox{limit: limit}
}

func (o *outbox) add(m pending) {
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs[len(o.msgs)-1] = m
		return
	}
	o.msgs = append(o.msgs, m)
}

// take returns every pending message, oldest first, and empties the outbox.
// The second result is how many messages were discarded since the last take.
func (o *outbox) take() ([]pending, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs = nil
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) size() int {
	return len(o.msgs)
}
