package camunda

import (
	"sync"
	"time"

	"ev-finance-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// Manager opens one job worker per task type and closes them together.
type Manager struct {
	client  zbc.Client
	logger  *zap.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewManager(client zbc.Client, logger *zap.Logger) *Manager {
	return &Manager{
		client:  client,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled. It reports whether
// a worker was opened.
func (m *Manager) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		m.logger.Info("worker disabled", zap.String("taskType", taskType))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workers[taskType]; exists {
		m.logger.Warn("worker already started", zap.String("taskType", taskType))
		return false
	}

	m.workers[taskType] = m.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	m.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return true
}

// TaskTypes lists the running workers.
func (m *Manager) TaskTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.workers))
	for t := range m.workers {
		out = append(out, t)
	}
	return out
}

// StopAll closes every worker and waits up to timeout for in-flight jobs.
func (m *Manager) StopAll(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for taskType, w := range m.workers {
			w.Close()
			w.AwaitClose()
			m.logger.Info("worker stopped", zap.String("taskType", taskType))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("timed out waiting for workers to stop", zap.Duration("timeout", timeout))
	}
	m.workers = make(map[string]worker.JobWorker)
}
