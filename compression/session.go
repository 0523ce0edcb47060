package compression

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
)

// State is a Session lifecycle state.
type State uint8

const (
	// Uninitialized is a fresh session; only Start is valid.
	Uninitialized State = iota
	// Started means Start succeeded and no block has been written yet.
	Started
	// WritingBlocks means at least one block has been written.
	WritingBlocks
	// Ended means End succeeded; the session accepts only Destroy.
	Ended
	// Destroyed means the compressor has been released.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Started:
		return "started"
	case WritingBlocks:
		return "writing-blocks"
	case Ended:
		return "ended"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Session drives one Compressor through its lifecycle. It is not safe for
// concurrent use.
type Session struct {
	id     ID
	c      Compressor
	state  State
	blocks int
	logger *slog.Logger
}

// Wrap returns a Session around c.
func Wrap(id ID, c Compressor, opts ...Option) *Session {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Session{id: id, c: c, logger: o.logger.With("codec", string(id))}
}

// NewSession looks up id and wraps a new compressor.
func (r *Registry) NewSession(id ID, cfg Config, opts ...Option) (*Session, error) {
	p, ok := r.Lookup(id)
	if !ok {
		return nil, errs.InvalidDimension("compression session", "unknown codec %q", id)
	}
	var c Compressor
	if err := guard(func() error {
		var err error
		c, err = p.NewCompressor(cfg)
		return err
	}); err != nil {
		return nil, translate("compression session", err)
	}
	return Wrap(id, c, opts...), nil
}

// NewDecompressor looks up id and creates a decompressor.
func (r *Registry) NewDecompressor(id ID) (Decompressor, error) {
	p, ok := r.Lookup(id)
	if !ok {
		return nil, errs.InvalidDimension("decompressor", "unknown codec %q", id)
	}
	var d Decompressor
	if err := guard(func() error {
		var err error
		d, err = p.NewDecompressor()
		return err
	}); err != nil {
		return nil, translate("decompressor", err)
	}
	return d, nil
}

// ID returns the codec identifier.
func (s *Session) ID() ID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Blocks returns the number of WriteBlock calls that succeeded.
func (s *Session) Blocks() int { return s.blocks }

// Start moves the session from Uninitialized to Started.
func (s *Session) Start(offset, dataLength uint64) (blockMask, padMask *block.Mask, err error) {
	const op = "compression start"
	if s.state != Uninitialized {
		return nil, nil, errs.InvalidState(op, "session is %s", s.state)
	}
	err = guard(func() error {
		var e error
		blockMask, padMask, e = s.c.Start(offset, dataLength)
		return e
	})
	if err != nil {
		return nil, nil, translate(op, err)
	}
	if blockMask == nil || padMask == nil {
		return nil, nil, errs.Codec(op, "codec returned no block mask")
	}
	s.state = Started
	s.logger.Debug("compression started", "offset", offset, "length", dataLength, "blocks", blockMask.Len())
	return blockMask, padMask, nil
}

// WriteBlock writes the next block. It is valid in Started and
// WritingBlocks.
func (s *Session) WriteBlock(w io.Writer, data []byte, isPad, isNoData bool) error {
	const op = "compression write block"
	if s.state != Started && s.state != WritingBlocks {
		return errs.InvalidState(op, "session is %s", s.state)
	}
	if err := guard(func() error { return s.c.WriteBlock(w, data, isPad, isNoData) }); err != nil {
		return translate(op, err)
	}
	s.state = WritingBlocks
	s.blocks++
	return nil
}

// End flushes the codec and moves the session to Ended.
func (s *Session) End(w io.Writer) error {
	const op = "compression end"
	if s.state != Started && s.state != WritingBlocks {
		return errs.InvalidState(op, "session is %s", s.state)
	}
	if err := guard(func() error { return s.c.End(w) }); err != nil {
		return translate(op, err)
	}
	s.state = Ended
	s.logger.Debug("compression ended", "blocks", s.blocks)
	return nil
}

// Destroy releases the codec. It is a no-op after the first call and safe
// on a session that was never started.
func (s *Session) Destroy() {
	if s.state == Destroyed {
		return
	}
	s.state = Destroyed
	if s.c == nil {
		return
	}
	// A panicking Destroy has nowhere to report; the session is gone either way.
	_ = guard(func() error { s.c.Destroy(); return nil })
	s.c = nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return fn()
}

type panicError struct{ v any }

func (p panicError) Error() string {
	switch v := p.v.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "unknown error"
	}
}

// translate keeps caller and I/O errors raised by the block framing layer
// and flattens everything else, whatever its kind, into a codec failure
// message.
func translate(op string, err error) error {
	var fe framingError
	if errors.As(err, &fe) {
		return fe.err
	}
	return errs.Codec(op, err.Error())
}
