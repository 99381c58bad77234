package render

import "sync"

// Worker runs Render off the caller's goroutine. One worker is created per
// mixing surface and reused for the session; the goroutine starts lazily on
// the first Submit and stops on Close.
type Worker struct {
	reqCh chan Request
	resCh chan Result
	done  chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

// NewWorker creates an idle worker. No goroutine runs until Submit.
func NewWorker() *Worker {
	return &Worker{
		reqCh: make(chan Request, 1),
		resCh: make(chan Result, 8),
		done:  make(chan struct{}),
	}
}

// Submit queues a render request without blocking. A request still waiting
// to start is replaced by the newer one; a request already rendering runs to
// completion (its result carries an older Seq and consumers drop it).
func (w *Worker) Submit(req Request) {
	w.startOnce.Do(func() {
		go w.loop()
	})

	for {
		select {
		case w.reqCh <- req:
			return
		case <-w.done:
			return
		default:
		}
		// Queue full: displace the unstarted older request and retry.
		select {
		case <-w.reqCh:
		default:
		}
	}
}

// Results returns the channel of finished rasters.
func (w *Worker) Results() <-chan Result {
	return w.resCh
}

// Close stops the worker. In-flight work is abandoned; results that were
// already queued remain readable.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})
}

func (w *Worker) loop() {
	for {
		select {
		case <-w.done:
			return
		case req := <-w.reqCh:
			img := Render(req)
			select {
			case w.resCh <- Result{Seq: req.Seq, Image: img}:
			case <-w.done:
				return
			}
		}
	}
}
