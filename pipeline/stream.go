package pipeline

import "context"

// Event is a progress update from a streaming pipeline run. Exactly one
// terminal event is sent: either Done with a Result, or Err.
type Event struct {
	Stage   string
	Message string
	Done    bool
	Result  *Result
	Err     error
}

// ProcessStream runs the pipeline like Process but reports progress as it
// goes. The returned channel is closed after the terminal event. If the
// context is cancelled, the producer stops without sending further events.
func (p *Processor) ProcessStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)

	send := func(event Event) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(events)

		result, err := p.run(ctx, req, func(stage, message string) {
			send(Event{Stage: stage, Message: message})
		})
		if err != nil {
			send(Event{Err: err})
			return
		}
		send(Event{Done: true, Result: result})
	}()

	return events
}
