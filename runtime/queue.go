package runtime

import "cow-chat/domain"

// deliveryQueue is a bounded FIFO of rendered messages for one recipient.
// When full, the oldest pending message is dropped to make room.
type deliveryQueue struct {
	items []domain.Message
	limit int
}

func newDeliveryQueue(limit int) deliveryQueue {
	if limit <= 0 {
		limit = 1
	}
	return deliveryQueue{limit: limit}
}

// push appends msg and reports whether an older message had to be dropped.
func (q *deliveryQueue) push(msg domain.Message) (dropped bool) {
	if len(q.items) >= q.limit {
		q.items[0] = domain.Message{}
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, msg)
	return dropped
}

func (q *deliveryQueue) pop() (domain.Message, bool) {
	if len(q.items) == 0 {
		return domain.Message{}, false
	}
	msg := q.items[0]
	q.items[0] = domain.Message{}
	q.items = q.items[1:]
	return msg, true
}

func (q *deliveryQueue) len() int { return len(q.items) }

func (q *deliveryQueue) reset() { q.items = nil }
