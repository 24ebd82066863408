package queue

import "sync"

// Listeners is a set of error listeners safe for concurrent use.
// Backends embed it to implement OnError and RemoveAllListeners.
type Listeners struct {
	mx        sync.RWMutex
	listeners []ErrorListener
}

func (l *Listeners) OnError(f ErrorListener) {
	l.mx.Lock()
	defer l.mx.Unlock()

	l.listeners = append(l.listeners, f)
}

func (l *Listeners) RemoveAllListeners() {
	l.mx.Lock()
	defer l.mx.Unlock()

	l.listeners = nil
}

// Emit calls every attached listener. Errors without listeners are dropped.
func (l *Listeners) Emit(err error) {
	l.mx.RLock()
	listeners := make([]ErrorListener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mx.RUnlock()

	for _, f := range listeners {
		f(err)
	}
}

func (l *Listeners) Len() int {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return len(l.listeners)
}
