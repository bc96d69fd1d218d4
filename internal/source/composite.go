package source

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/log"
)

// CompositeSource merges several sources. Events with the same ID are
// reported once, from the first source that has them.
type CompositeSource struct {
	sources   []Source
	mu        sync.RWMutex
	eventChan chan FileChangeEvent
	stopChans []chan struct{}
}

func NewCompositeSource(sources ...Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

func (c *CompositeSource) AddSource(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, source)
}

// SetFiles is a no-op; each source keeps its own files.
func (c *CompositeSource) SetFiles(files []string) {}

func (c *CompositeSource) GetEvents(start, end time.Time) ([]event.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var allEvents []event.Event
	seen := make(map[string]bool)
	var errs []error

	for _, source := range c.sources {
		events, err := source.GetEvents(start, end)
		if err != nil {
			log.Error("source failed", err)
			errs = append(errs, err)
			continue
		}
		for _, ev := range events {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			allEvents = append(allEvents, ev)
		}
	}

	sort.SliceStable(allEvents, func(i, j int) bool {
		return allEvents[i].Start.Before(allEvents[j].Start)
	})

	// Fails only when every source failed.
	if len(errs) > 0 && len(errs) == len(c.sources) {
		return nil, errors.Join(errs...)
	}
	return allEvents, nil
}

// Reschedule asks each writable source in turn.
func (c *CompositeSource) Reschedule(id string, start, end time.Time) (event.Event, error) {
	var ev event.Event
	err := c.eachWriter(func(w Writer) error {
		var err error
		ev, err = w.Reschedule(id, start, end)
		return err
	})
	return ev, err
}

func (c *CompositeSource) Delete(id string) error {
	return c.eachWriter(func(w Writer) error {
		return w.Delete(id)
	})
}

// Add stores ev in the first writable source.
func (c *CompositeSource) Add(ev event.Event) (event.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, source := range c.sources {
		if w, ok := source.(Writer); ok {
			return w.Add(ev)
		}
	}
	return event.Event{}, ErrReadOnly
}

func (c *CompositeSource) eachWriter(fn func(Writer) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := false
	for _, source := range c.sources {
		w, ok := source.(Writer)
		if !ok {
			continue
		}
		found = true
		err := fn(w)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return err
	}
	if !found {
		return ErrReadOnly
	}
	return fmt.Errorf("%w in any writable source", ErrNotFound)
}

func (c *CompositeSource) WatchFiles() (<-chan FileChangeEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eventChan != nil {
		return c.eventChan, nil
	}
	c.eventChan = make(chan FileChangeEvent, 10)

	for _, source := range c.sources {
		sourceChan, err := source.WatchFiles()
		if err != nil || sourceChan == nil {
			continue
		}

		stopChan := make(chan struct{})
		c.stopChans = append(c.stopChans, stopChan)

		go func(src <-chan FileChangeEvent, stop chan struct{}, out chan<- FileChangeEvent) {
			for {
				select {
				case ev, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- ev:
					case <-stop:
						return
					default:
						// Channel full, drop event
					}
				case <-stop:
					return
				}
			}
		}(sourceChan, stopChan, c.eventChan)
	}

	return c.eventChan, nil
}

func (c *CompositeSource) StopWatching() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stopChan := range c.stopChans {
		close(stopChan)
	}
	c.stopChans = nil

	var errs []error
	for _, source := range c.sources {
		if err := source.StopWatching(); err != nil {
			errs = append(errs, err)
		}
	}

	// Not closed: a forwarder may still hold it.
	c.eventChan = nil
	return errors.Join(errs...)
}
