package register

import "sync"

// Handler is an init-time hook resolved later against a concrete T (store provider, process...).
type Handler[T any] func(T)

var (
	mu       sync.RWMutex
	handlers = make(map[any][]any)
)

func RegisterFunc[T any](key any, handler Handler[T]) {
	mu.Lock()
	handlers[key] = append(handlers[key], handler)
	mu.Unlock()
}

func ResolveFuncHandlers[T any](key any) []Handler[T] {
	mu.RLock()
	defer mu.RUnlock()

	var result []Handler[T]
	for _, v := range handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}
