package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aovestdipaperino/worksteal"
)

// The demo submits 100 tasks with varying simulated cost to a pool of four
// workers, drains the pool and prints how the work was spread: busy workers
// keep executing their local queues while idle peers steal the overflow.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worksteal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	service, err := worksteal.New(
		worksteal.WithWorkers(4),
		worksteal.WithPoolID("demo"),
		worksteal.WithShutdownTimeout(30*time.Second),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := service.Start(ctx); err != nil {
		return err
	}

	fmt.Println("=== Work-Stealing Pool ===")
	fmt.Println()
	fmt.Println("Submitting 100 tasks...")
	for i := 0; i < 100; i++ {
		cost := time.Duration(i%10+1) * 10 * time.Microsecond
		if _, err := service.SubmitFunc(ctx, func(ctx context.Context) {
			time.Sleep(cost)
		}); err != nil {
			return err
		}
	}

	if err := service.Shutdown(ctx); err != nil {
		return err
	}

	snapshot := service.Progress()
	fmt.Println()
	for i, worker := range snapshot.Workers {
		fmt.Printf("Worker %d: processed %d tasks (%d stolen)\n", i, worker.Executed, worker.Stolen)
	}
	fmt.Printf("\nTotal tasks processed: %d\n", snapshot.ExecutedTasks)
	return nil
}
