package physics

import (
	"log"
	"sync/atomic"
)

// Controller runs the acceleration computation, preferably on a background
// worker goroutine. The render loop calls Submit with current positions and
// Latest for the freshest available result; neither blocks. If the worker
// cannot run (or dies), Submit falls back to computing inline on the caller,
// degraded but still correct.
type Controller struct {
	mass float64

	requests chan []float32
	results  chan []float32
	stop     chan struct{}

	latest  []float32
	running atomic.Bool
}

// NewController creates a controller for the given central mass.
func NewController(mass float64) *Controller {
	return &Controller{
		mass:     mass,
		requests: make(chan []float32, 1),
		results:  make(chan []float32, 1),
	}
}

// Start launches the background worker. Calling Start on a running
// controller is a no-op; a stopped controller can be started again.
func (c *Controller) Start() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	c.stop = make(chan struct{})
	go c.run(c.stop)
}

func (c *Controller) run(stop <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("physics: worker crashed, falling back to inline computation: %v", r)
			c.running.Store(false)
		}
	}()
	for {
		select {
		case <-stop:
			return
		case positions := <-c.requests:
			acc := Accelerations(positions, c.mass)
			// Replace any stale pending result rather than blocking.
			select {
			case c.results <- acc:
			default:
				select {
				case <-c.results:
				default:
				}
				select {
				case c.results <- acc:
				default:
				}
			}
		}
	}
}

// Stop shuts the worker down. Safe to call if never started, and safe to
// call concurrently with Submit.
func (c *Controller) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.stop)
}

// Submit posts particle positions for the next computation. The slice is
// copied so the caller may keep mutating its buffers. Without a running
// worker the computation happens inline and its result is available from
// Latest immediately.
func (c *Controller) Submit(positions []float32) {
	snapshot := make([]float32, len(positions))
	copy(snapshot, positions)

	if !c.running.Load() {
		c.latest = Accelerations(snapshot, c.mass)
		return
	}
	select {
	case c.requests <- snapshot:
	default:
		// Worker still busy with the previous frame; skip this one and
		// let the loop render with stale data.
	}
}

// Latest returns the most recent acceleration result, or nil if none has
// arrived yet. Never blocks.
func (c *Controller) Latest() []float32 {
	select {
	case res := <-c.results:
		c.latest = res
	default:
	}
	return c.latest
}
