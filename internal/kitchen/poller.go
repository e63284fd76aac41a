package kitchen

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// poller runs fn once immediately and then on every tick until stopped.
// Stopping does not cancel a run that is already in flight.
type poller struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

func startPoller(parent context.Context, name string, interval time.Duration, fn func(context.Context)) *poller {
	ctx, cancel := context.WithCancel(parent)
	p := &poller{name: name, cancel: cancel, done: make(chan struct{})}
	work := context.WithoutCancel(ctx)

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Debug().Str("poller", name).Dur("interval", interval).Msg("poller: started")
		go fn(work)
		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("poller", name).Msg("poller: stopped")
				return
			case <-ticker.C:
				go fn(work)
			}
		}
	}()
	return p
}

// stop ends the tick loop and waits for it to exit.
func (p *poller) stop() {
	p.cancel()
	<-p.done
}
