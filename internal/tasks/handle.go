package tasks

// Handle результат асинхронной задачи. Опрашивается без блокировки из главного цикла.
type Handle[T any] struct {
	ch    chan T
	done  bool
	value T
}

func newHandle[T any]() *Handle[T] {
	// Буфер на одно значение: воркер никогда не ждёт опроса
	return &Handle[T]{ch: make(chan T, 1)}
}

func (h *Handle[T]) complete(v T) {
	h.ch <- v
}

// Poll возвращает результат и true, если задача завершилась. Не блокирует.
func (h *Handle[T]) Poll() (T, bool) {
	if h.done {
		return h.value, true
	}
	select {
	case v := <-h.ch:
		h.done = true
		h.value = v
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Wait блокируется до результата. Нужен тестам и остановке, не главному циклу.
func (h *Handle[T]) Wait() T {
	if h.done {
		return h.value
	}
	h.value = <-h.ch
	h.done = true
	return h.value
}
