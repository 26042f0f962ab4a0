package flow

import (
	"context"
	"sync"
	"time"

	"github.com/vk/flowgridgo/internal/concurrent"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/metrics"
)

const defaultWorkers = 10

// executor drains the runnable frontier with a fixed pool of workers. Each
// completed vertex publishes its emitted cells, which drives the consumer
// edges' completion callbacks and may surface further runnable vertexes.
type executor struct {
	graph   *Graph
	ready   chan *Vertex
	stats   *metrics.ExecutorStats
	workers int
	wg      sync.WaitGroup
}

func newExecutor(g *Graph, opts RunOptions) *executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	e := &executor{
		graph: g,
		// Every vertex runs at most once per execution, so this capacity
		// makes enqueue non-blocking.
		ready:   make(chan *Vertex, len(g.vertexes)),
		stats:   opts.Stats,
		workers: workers,
	}
	e.wg.Add(workers)
	return e
}

// start launches the worker pool. Workers exit when ctx is canceled.
func (e *executor) start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, i)
	}
}

// enqueue transfers runnable vertexes to the worker pool.
func (e *executor) enqueue(runnable *VertexStack) {
	for {
		v, ok := runnable.Pop()
		if !ok {
			return
		}
		e.ready <- v
	}
}

// wait blocks until every worker has exited.
func (e *executor) wait() {
	e.wg.Wait()
}

// worker is the processing loop of one pool goroutine.
func (e *executor) worker(ctx context.Context, workerID int) {
	defer e.wg.Done()
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")
	defer logger.Debug("Worker finished.")

	var book *workerBook
	if e.stats != nil {
		book = newWorkerBook(e.stats)
		defer book.release()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-e.ready:
			e.runVertex(ctx, v, book)
		}
	}
}

// runVertex executes one vertex and cascades its completions.
func (e *executor) runVertex(ctx context.Context, v *Vertex, book *workerBook) {
	logger := ctxlog.FromContext(ctx).With("vertex", v.Name(), "op", v.Op())
	if e.graph.closure.Finished() {
		// A fatal error already settled the execution; late runnables are
		// dropped, not run.
		logger.Debug("Skipping vertex, execution already settled.")
		return
	}

	logger.Debug("Worker picked up vertex for execution.")
	start := time.Now()
	err := v.handler(ctx, &Invocation{vertex: v, args: v.args})
	if book != nil {
		book.latency.Add(time.Since(start).Microseconds())
	}

	if err != nil {
		logger.Error("Vertex execution failed.", "error", err)
		if book != nil {
			book.failed.Add(1)
		}
		v.Closure().Finish(-1)
		return
	}

	var runnable VertexStack
	for _, d := range v.emits {
		d.publish(&runnable)
	}
	if book != nil {
		book.completed.Add(1)
		book.depth.Record(int64(runnable.Len() + len(e.ready)))
	}
	logger.Debug("Vertex execution succeeded.", "unlocked", runnable.Len())
	e.enqueue(&runnable)
}

// workerBook bundles one worker's counter handles so the hot path writes
// its own slots only.
type workerBook struct {
	completed *concurrent.AdderHandle
	failed    *concurrent.AdderHandle
	depth     *concurrent.MaxerHandle
	latency   *concurrent.SummerHandle
}

func newWorkerBook(stats *metrics.ExecutorStats) *workerBook {
	return &workerBook{
		completed: stats.Completed.Handle(),
		failed:    stats.Failed.Handle(),
		depth:     stats.QueueDepth.Handle(),
		latency:   stats.RunLatency.Handle(),
	}
}

func (b *workerBook) release() {
	b.completed.Release()
	b.failed.Release()
	b.depth.Release()
	b.latency.Release()
}
