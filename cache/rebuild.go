package cache

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/malwarebo/dealhub/utils"
)

// RebuildPool runs cache rebuild tasks on a bounded set of workers. Readers
// hand expired entries off here and keep serving stale data; a task fault is
// logged, never surfaced to a reader.
type RebuildPool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
	logger *utils.Logger
}

func NewRebuildPool(workers, queueSize int) *RebuildPool {
	if workers <= 0 {
		workers = 10
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}

	p := &RebuildPool{
		tasks:  make(chan func(), queueSize),
		logger: utils.NewLogger("cache-rebuild"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit queues a task without blocking. A false return means the queue is
// full; the caller keeps the rebuild lock and must release it itself.
func (p *RebuildPool) Submit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *RebuildPool) Close() {
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
}

func (p *RebuildPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *RebuildPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(context.Background(), "rebuild task panicked", map[string]interface{}{
				"panic": r,
				"stack": string(debug.Stack()),
			})
		}
	}()
	task()
}
