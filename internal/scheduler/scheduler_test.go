package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

func TestContactFollowupPayloadRoundTrip(t *testing.T) {
	payload := ContactFollowupPayload{
		ContactID:  "5a0e5fcd-6a83-4c2e-9f5e-1f9d2b340f11",
		SourceCode: "website",
	}

	task, err := NewContactFollowupTask(payload)
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskContactFollowup {
		t.Fatalf("got task type %q", task.Type())
	}

	parsed, err := ParseContactFollowupPayload(task)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != payload {
		t.Fatalf("got %+v, want %+v", parsed, payload)
	}
}

func TestParseContactFollowupPayload_Garbage(t *testing.T) {
	task := asynq.NewTask(TaskContactFollowup, []byte("not json"))
	if _, err := ParseContactFollowupPayload(task); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opt.Addr != "localhost:6380" {
		t.Fatalf("got addr %q", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Fatalf("got password %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Fatalf("got db %d", opt.DB)
	}

	if _, err := redisClientOpt("://bad"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestScheduleContactFollowup_EnqueuesDelayedTask(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		RedisURL:       "redis://" + mr.Addr(),
		AsynqQueueName: "followups",
	}
	client, err := NewClient(cfg, logger.New("development"))
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	defer client.Close()

	payload := ContactFollowupPayload{ContactID: "abc", SourceCode: "website"}
	if err := client.ScheduleContactFollowup(context.Background(), payload, time.Minute); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("followups")
	if err != nil {
		t.Fatalf("list scheduled failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskContactFollowup {
		t.Fatalf("got task type %q", tasks[0].Type)
	}

	parsed, err := ParseContactFollowupPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != payload {
		t.Fatalf("got %+v, want %+v", parsed, payload)
	}
}
