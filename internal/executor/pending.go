package executor

import "context"

// Pending is the eventual result of an asynchronous operation.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func goPending[T any](fn func() (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.val, p.err = fn()
	}()
	return p
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation finishes and returns its result.
func (p *Pending[T]) Wait() (T, error) {
	<-p.done
	return p.val, p.err
}

// WaitContext is like Wait but gives up when ctx is done. The operation
// itself keeps running; cancel the context passed to the Async call to
// stop it.
func (p *Pending[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
