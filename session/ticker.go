package session

import "time"

// progressTicker calls advance on every interval until stopped. Stop
// returns only after the tick goroutine has exited.
type progressTicker struct {
	stop chan struct{}
	done chan struct{}
}

func (c *Controller) startTicker(gen uint64) *progressTicker {
	t := &progressTicker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		tk := time.NewTicker(c.opts.TickInterval)
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				c.advance(gen)
			}
		}
	}()
	return t
}

func (t *progressTicker) Stop() {
	close(t.stop)
	<-t.done
}
