package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadrouter_backend/internal/events"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

// Worker consumes scheduled follow-up tasks. A contact that is still
// untouched when its follow-up fires is surfaced on the event bus so
// downstream consumers can escalate it.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

type followupHandler struct {
	pool   *pgxpool.Pool
	bus    events.Bus
	logger *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	handler := &followupHandler{pool: pool, bus: bus, logger: log}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskContactFollowup, handler.handleContactFollowup)

	return &Worker{server: server, mux: mux}, nil
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (h *followupHandler) handleContactFollowup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseContactFollowupPayload(task)
	if err != nil {
		return fmt.Errorf("parse followup payload: %w", err)
	}
	contactID, err := uuid.Parse(payload.ContactID)
	if err != nil {
		return fmt.Errorf("parse contact id %q: %w", payload.ContactID, err)
	}

	var status string
	err = h.pool.QueryRow(ctx,
		`SELECT status FROM contacts WHERE id = $1`, contactID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		// Contact deleted since scheduling; nothing to do.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load contact %s: %w", payload.ContactID, err)
	}

	if status != "new" {
		return nil
	}

	h.logger.Warn("contact still unhandled after followup delay",
		"contact_id", payload.ContactID,
		"source_code", payload.SourceCode,
	)
	return h.bus.PublishSync(ctx, events.ContactFollowupDue{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contactID,
		Status:    status,
	})
}
