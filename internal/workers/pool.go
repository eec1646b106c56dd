// Package workers содержит ограниченный пул горутин для фоновых задач,
// прежде всего AI-анализа записей после сохранения.
package workers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/moodlog/moodlog-backend/internal/lib/sl"
)

// Task это единица фоновой работы. Контекст задачи не наследует контекст
// HTTP-запроса: анализ продолжается после ответа клиенту.
type Task func(ctx context.Context)

// Pool выполняет задачи в ограниченном числе горутин. Если все заняты,
// Submit блокируется до освобождения слота или остановки пула.
type Pool struct {
	log      *slog.Logger
	sem      chan struct{}
	wg       sync.WaitGroup
	taskCtx  context.Context
	cancel   context.CancelFunc
	quit     chan struct{}
	quitOnce sync.Once
}

// New создаёт пул на size одновременных задач.
func New(log *slog.Logger, size int) *Pool {
	taskCtx, cancel := context.WithCancel(context.Background())
	return &Pool{
		log:     log,
		sem:     make(chan struct{}, size),
		taskCtx: taskCtx,
		cancel:  cancel,
		quit:    make(chan struct{}),
	}
}

// Submit ставит задачу в пул. Возвращает false, если пул уже остановлен.
func (p *Pool) Submit(task Task) bool {
	select {
	case <-p.quit:
		return false
	case p.sem <- struct{}{}:
	}

	select {
	case <-p.quit:
		<-p.sem
		return false
	default:
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("background task panicked", slog.Any("panic", r))
			}
		}()
		task(p.taskCtx)
	}()
	return true
}

// Shutdown останавливает приём новых задач и ждёт завершения текущих.
// Если контекст истекает раньше, оставшиеся задачи получают отмену.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.quitOnce.Do(func() { close(p.quit) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		p.log.Warn("worker pool shutdown timed out", sl.Err(ctx.Err()))
		return ctx.Err()
	}
}
