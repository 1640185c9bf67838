package serial

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/utils"
)

// retryDelay paces reads after a read error.
const retryDelay = 100 * time.Millisecond

// A ByteSink consumes bytes one at a time. Feed must return quickly and never block.
type ByteSink interface {
	Feed(b byte)
}

// A Pump copies bytes from a reader into a sink on a background worker.
type Pump struct {
	src     io.Reader
	sink    ByteSink
	logger  logging.Logger
	workers *utils.Workers
}

// NewPump starts pumping src into sink.
func NewPump(src io.Reader, sink ByteSink, logger logging.Logger) *Pump {
	p := &Pump{src: src, sink: sink, logger: logger}
	p.workers = utils.NewWorkers(logger)
	p.workers.Go("serial pump", p.run)
	return p
}

func (p *Pump) run(ctx context.Context) {
	buf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := p.src.Read(buf)
		for _, b := range buf[:n] {
			p.sink.Feed(b)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			p.logger.Debugw("serial stream ended")
			return
		default:
			p.logger.Warnw("error reading serial stream", "error", err)
			if !goutils.SelectContextOrWait(ctx, retryDelay) {
				return
			}
		}
	}
}

// Close stops the pump. A Read blocked on the source returns at its read timeout.
func (p *Pump) Close(ctx context.Context) error {
	p.workers.Stop()
	return nil
}
