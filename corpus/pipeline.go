package corpus

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// document is the payload that flows through the loader pipeline.
type document struct {
	// The page name (the file name relative to the corpus directory).
	name string

	// The path to the file backing the page.
	path string

	// The raw link targets found in the document.
	links []string
}

// processorFunc populates a document as part of the worker pool stage.
type processorFunc func(context.Context, *document) error

// sinkFunc consumes fully processed documents. It is always invoked from a
// single go-routine.
type sinkFunc func(context.Context, *document) error

// runPipeline pushes docs through a pool of numWorkers that apply proc and
// directs the results to sink. Calls to runPipeline block until:
//   - all documents have reached the sink OR
//   - an error occurs OR
//   - the supplied context expires
func runPipeline(ctx context.Context, docs []*document, numWorkers int, proc processorFunc, sink sinkFunc) error {
	var wg sync.WaitGroup
	pCtx, ctxCancelFn := context.WithCancel(ctx)

	// One channel feeds the worker pool, another one feeds the sink. The
	// error channel can hold an error from each worker and the sink.
	var (
		inCh  = make(chan *document)
		outCh = make(chan *document)
		errCh = make(chan error, numWorkers+1)
	)

	wg.Add(1)
	go func() {
		sourceWorker(pCtx, docs, inCh)

		// Signal the pool that no more data is available.
		close(inCh)
		wg.Done()
	}()

	var poolWg sync.WaitGroup
	poolWg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			poolWorker(pCtx, proc, inCh, outCh, errCh)
			poolWg.Done()
		}()
	}
	go func() {
		// Signal the sink that no more data is available once every
		// worker exits.
		poolWg.Wait()
		close(outCh)
	}()

	wg.Add(1)
	go func() {
		sinkWorker(pCtx, sink, outCh, errCh)
		wg.Done()
	}()

	// Close the error channel once all workers exit.
	go func() {
		wg.Wait()
		poolWg.Wait()
		close(errCh)
		ctxCancelFn()
	}()

	// Collect any emitted errors and wrap them in a multi-error.
	var err error
	for pErr := range errCh {
		err = multierror.Append(err, pErr)
		ctxCancelFn()
	}
	return err
}

// sourceWorker emits each document to the worker pool input channel.
func sourceWorker(ctx context.Context, docs []*document, outCh chan<- *document) {
	for _, doc := range docs {
		select {
		case outCh <- doc:
		case <-ctx.Done():
			// Asked to shutdown
			return
		}
	}
}

// poolWorker applies proc to every incoming document and forwards it to the
// sink.
func poolWorker(ctx context.Context, proc processorFunc, inCh <-chan *document, outCh chan<- *document, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-inCh:
			if !ok {
				return
			}

			if err := proc(ctx, doc); err != nil {
				maybeEmitError(xerrors.Errorf("processing %q: %w", doc.name, err), errCh)
				return
			}

			select {
			case outCh <- doc:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sinkWorker passes every processed document to sink.
func sinkWorker(ctx context.Context, sink sinkFunc, inCh <-chan *document, errCh chan<- error) {
	for {
		select {
		case doc, ok := <-inCh:
			if !ok {
				return
			}

			if err := sink(ctx, doc); err != nil {
				maybeEmitError(xerrors.Errorf("corpus sink: %w", err), errCh)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// maybeEmitError attempts to queue err to a buffered error channel. If the
// channel is full, the error is dropped.
func maybeEmitError(err error, errCh chan<- error) {
	select {
	case errCh <- err: // error emitted.
	default: // error channel is full with other errors.
	}
}
