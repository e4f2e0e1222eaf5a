package input

import (
	"log"
	"sync"

	"controllerblocker/pkg/integrations/common"
)

// Pump keeps one reader per controller node, each feeding the queue
type Pump struct {
	mu      sync.Mutex
	queue   *Queue
	open    Opener
	readers map[string]*reader
}

type reader struct {
	path   string
	name   string
	source Source
	done   chan struct{}
}

func NewPump(queue *Queue, open Opener) *Pump {
	return &Pump{
		queue:   queue,
		open:    open,
		readers: make(map[string]*reader),
	}
}

// Sync starts readers for controllers that have none and closes readers for
// nodes that are no longer listed. Nodes that fail to open are retried on the
// next Sync.
func (p *Pump) Sync(controllers []common.Controller) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]common.Controller, len(controllers))
	for _, c := range controllers {
		current[c.Path] = c
	}

	for path, r := range p.readers {
		select {
		case <-r.done:
			// Reader exited on its own; reopen below if still listed.
			delete(p.readers, path)
			continue
		default:
		}
		if c, ok := current[path]; !ok || c.Name != r.name {
			r.source.Close()
			delete(p.readers, path)
		}
	}

	for path, c := range current {
		if _, ok := p.readers[path]; ok {
			continue
		}
		source, err := p.open(path, c.Name)
		if err != nil {
			log.Printf("Cannot read controller %s (%s): %v", c.Name, path, err)
			continue
		}
		r := &reader{path: path, name: c.Name, source: source, done: make(chan struct{})}
		p.readers[path] = r
		go p.run(r)
	}
}

func (p *Pump) run(r *reader) {
	defer close(r.done)
	for {
		events, err := r.source.ReadEvents()
		for _, e := range events {
			p.queue.Push(e)
		}
		if err != nil {
			log.Printf("Stopped reading %s (%s): %v", r.name, r.path, err)
			r.source.Close()
			return
		}
	}
}

// Close stops every reader
func (p *Pump) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for path, r := range p.readers {
		r.source.Close()
		delete(p.readers, path)
	}
}
