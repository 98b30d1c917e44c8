package library

// NewStack returns a new FIFO stack with the given initial size.
func NewStack[T any](size int) *Stack[T] {
	if size < 1 {
		size = 1
	}
	return &Stack[T]{
		nodes: make([]T, size),
		size:  size,
	}
}

// Stack is a FIFO stack that resizes as needed. It is not safe for concurrent use.
type Stack[T any] struct {
	nodes []T
	size  int
	head  int
	tail  int
	count int
}

// Push adds an item to the stack.
func (q *Stack[T]) Push(n T) {
	if q.head == q.tail && q.count > 0 {
		nodes := make([]T, len(q.nodes)+q.size)
		copy(nodes, q.nodes[q.head:])
		copy(nodes[len(q.nodes)-q.head:], q.nodes[:q.head])
		q.head = 0
		q.tail = len(q.nodes)
		q.nodes = nodes
	}
	q.nodes[q.tail] = n
	q.tail = (q.tail + 1) % len(q.nodes)
	q.count++
}

// Pop removes and returns an item in first to last order.
func (q *Stack[T]) Pop() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	node := q.nodes[q.head]
	q.nodes[q.head] = zero
	q.head = (q.head + 1) % len(q.nodes)
	q.count--
	return node, true
}

func (q *Stack[T]) Len() int {
	return q.count
}
