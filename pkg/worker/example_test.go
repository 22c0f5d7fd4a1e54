package worker_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/internal/taskqueue"
	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/worker"
)

// ExampleWorker demonstrates delivering one submission through a queue.
func ExampleWorker() {
	ctx := context.Background()

	store := persistence.NewInMemoryStore()
	queue := taskqueue.NewInMemoryQueue(16)

	w := worker.NewWithConfig(store, queue, worker.Config{
		MaxAttempts: 3,
		Backoff:     10 * time.Millisecond,
	})

	err := w.EnqueueSubmission(ctx, api.Submission{
		ID:      "sub-1",
		FormID:  "feedback",
		Answers: api.Answers{"rating": api.Number(5)},
	})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := w.ProcessOne(ctx); err != nil {
		log.Fatal(err)
	}

	sub, err := store.GetSubmission(ctx, "sub-1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sub.FormID, sub.Answers["rating"])
	// Output: feedback 5
}
