package i2cbus

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	I2cWrite = iota + 1
	I2cRead
	I2cWriteRead
	I2cExclusive
)

var ErrSequencerStopped = errors.New("I2C sequencer is stopped")

type I2cRequest struct {
	Type      int
	Addr      byte
	DataWrite []byte
	DataRead  []byte
	Func      func(bus I2cBus) error // Only for I2cExclusive
	Error     error

	done bool
	wait *sync.Cond
}

func (r *I2cRequest) init() {
	r.wait = &sync.Cond{L: new(sync.Mutex)}
}

func (r *I2cRequest) Wait() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	for !r.done {
		r.wait.Wait()
	}
}

func (r *I2cRequest) notifyDone() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	r.done = true
	r.wait.Broadcast()
}

// Sequencer serializes all requests to the wrapped bus through a single goroutine.
// Multiple goroutines can use one Sequencer concurrently.
type Sequencer struct {
	bus   I2cBus
	queue chan *I2cRequest

	lock    sync.RWMutex
	stopped bool
}

func NewSequencer(bus I2cBus, queueSize int) *Sequencer {
	return &Sequencer{
		bus:   bus,
		queue: make(chan *I2cRequest, queueSize),
	}
}

func (s *Sequencer) Start() {
	go s.handleI2cRequests()
}

// Stop rejects new requests. Requests already queued are still executed.
func (s *Sequencer) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.queue)
	}
}

func (s *Sequencer) handleI2cRequests() {
	for req := range s.queue {
		switch req.Type {
		case I2cWrite:
			req.Error = s.bus.I2cWrite(req.Addr, req.DataWrite...)
		case I2cRead:
			req.Error = s.bus.I2cRead(req.Addr, req.DataRead)
		case I2cWriteRead:
			req.Error = s.bus.I2cWriteRead(req.Addr, req.DataWrite, req.DataRead)
		case I2cExclusive:
			req.Error = req.Func(s.bus)
		default:
			log.Errorln("Ignoring invalid I2C request with type", req.Type)
		}
		req.notifyDone()
	}
}

func (s *Sequencer) QueueI2cRequest(req *I2cRequest) error {
	req.init()
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.stopped {
		return ErrSequencerStopped
	}
	s.queue <- req
	return nil
}

func (s *Sequencer) I2cRequest(req *I2cRequest) error {
	if err := s.QueueI2cRequest(req); err != nil {
		return err
	}
	req.Wait()
	return req.Error
}

func (s *Sequencer) I2cWrite(addr byte, data ...byte) error {
	return s.I2cRequest(&I2cRequest{
		Type:      I2cWrite,
		Addr:      addr,
		DataWrite: data,
	})
}

func (s *Sequencer) I2cRead(addr byte, data []byte) error {
	return s.I2cRequest(&I2cRequest{
		Type:     I2cRead,
		Addr:     addr,
		DataRead: data,
	})
}

func (s *Sequencer) I2cWriteRead(addr byte, out, in []byte) error {
	return s.I2cRequest(&I2cRequest{
		Type:      I2cWriteRead,
		Addr:      addr,
		DataRead:  in,
		DataWrite: out,
	})
}

// Exclusive runs f on the sequencer goroutine. No other request is executed until f returns.
func (s *Sequencer) Exclusive(f func(bus I2cBus) error) error {
	return s.I2cRequest(&I2cRequest{
		Type: I2cExclusive,
		Func: f,
	})
}
