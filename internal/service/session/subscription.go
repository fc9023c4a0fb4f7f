package session

// Subscribe registers a view listener. The current view is delivered
// immediately; after that every change lands on the channel, newest winning
// when the listener lags. All subscriber channels close when Run returns.
func (e *Engine) Subscribe() chan View {
	ch := make(chan View, 1)

	e.viewMu.Lock()
	e.subscribers[ch] = struct{}{}
	ch <- e.view
	e.viewMu.Unlock()

	return ch
}

func (e *Engine) Unsubscribe(ch chan View) {
	e.viewMu.Lock()
	_, exists := e.subscribers[ch]
	delete(e.subscribers, ch)
	e.viewMu.Unlock()

	if exists {
		close(ch)
	}
}

func (e *Engine) notifySubscribers(view View) {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()

	for ch := range e.subscribers {
		select {
		case ch <- view:
		default:
			// Swap the undelivered view for the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()

	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}
