package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prepforge/prepforge-backend/internal/config"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestWorker(t *testing.T) (*ResultWorker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		// Let the ctx deadline interrupt the blocking pop.
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { rdb.Close() })
	return NewResultWorker(nil, rdb, zerolog.Nop()), rdb
}

func enqueue(t *testing.T, rdb *redis.Client, p resultPayload) {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := rdb.RPush(context.Background(), config.WorkerKey.PersistResultsQueue, data).Err(); err != nil {
		t.Fatal(err)
	}
}

func awaitEmptyQueue(t *testing.T, rdb *redis.Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := rdb.LLen(context.Background(), config.WorkerKey.PersistResultsQueue).Result()
		if err == nil && n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("queue was never consumed")
}

// Shutdown must flush what the worker has buffered but not yet persisted,
// including when cancellation interrupts the blocking pop.
func TestStartDrainsBufferOnCancel(t *testing.T) {
	w, rdb := newTestWorker(t)

	flushed := make(chan []*resultPayload, 1)
	w.flush = func(ctx context.Context, batch []*resultPayload) {
		cp := make([]*resultPayload, len(batch))
		copy(cp, batch)
		select {
		case flushed <- cp:
		default:
		}
	}

	answers := model.AnswerMap{0: "A", 2: "C"}
	enqueue(t, rdb, resultPayload{
		SessionID:      "4b2f9c51-9f6e-4d7a-8a53-91d6f3f6f001",
		TestID:         "t1",
		TestName:       "Networking Basics",
		TotalQuestions: 3,
		CorrectCount:   2,
		ScorePercent:   67,
		Answers:        answers,
		SubmittedAt:    time.Now().Unix(),
	})
	enqueue(t, rdb, resultPayload{
		SessionID:      "4b2f9c51-9f6e-4d7a-8a53-91d6f3f6f002",
		TestID:         "t2",
		TestName:       "Storage Basics",
		TotalQuestions: 4,
		CorrectCount:   1,
		ScorePercent:   25,
		SubmittedAt:    time.Now().Unix(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	awaitEmptyQueue(t, rdb)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	select {
	case batch := <-flushed:
		if len(batch) != 2 {
			t.Fatalf("flushed %d results, want 2", len(batch))
		}
		if batch[0].Answers[0] != "A" || batch[0].Answers[2] != "C" {
			t.Errorf("answer map lost in transit: %v", batch[0].Answers)
		}
		if batch[1].ScorePercent != 25 {
			t.Errorf("ScorePercent = %d, want 25", batch[1].ScorePercent)
		}
	default:
		t.Fatal("buffered results were dropped on shutdown")
	}
}

// Malformed queue entries are discarded; the rest of the batch survives.
func TestStartDiscardsMalformedPayloads(t *testing.T) {
	w, rdb := newTestWorker(t)

	flushed := make(chan []*resultPayload, 1)
	w.flush = func(ctx context.Context, batch []*resultPayload) {
		cp := make([]*resultPayload, len(batch))
		copy(cp, batch)
		select {
		case flushed <- cp:
		default:
		}
	}

	if err := rdb.RPush(context.Background(), config.WorkerKey.PersistResultsQueue, "{not json").Err(); err != nil {
		t.Fatal(err)
	}
	enqueue(t, rdb, resultPayload{
		SessionID:      "4b2f9c51-9f6e-4d7a-8a53-91d6f3f6f003",
		TestID:         "t3",
		TestName:       "Compute Basics",
		TotalQuestions: 2,
		CorrectCount:   2,
		ScorePercent:   100,
		SubmittedAt:    time.Now().Unix(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	awaitEmptyQueue(t, rdb)
	<-done

	select {
	case batch := <-flushed:
		if len(batch) != 1 || batch[0].TestID != "t3" {
			t.Fatalf("unexpected flushed batch: %+v", batch)
		}
	default:
		t.Fatal("valid result was dropped alongside the malformed one")
	}
}

func TestAnswersJSONEmptyMap(t *testing.T) {
	if got := string(answersJSON(nil)); got != "{}" {
		t.Errorf("answersJSON(nil) = %s, want {}", got)
	}
	if got := string(answersJSON(model.AnswerMap{1: "B"})); got != `{"1":"B"}` {
		t.Errorf("answersJSON = %s", got)
	}
}
