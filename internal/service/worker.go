package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vanshika/gradefeed/internal/feed"
)

// TaskError accumulates the per-item failures of a bulk run.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d items failed:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString(" " + err.Error() + ";")
	}
	return b.String()
}

// Unwrap exposes every item failure to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ItemError ties a failure to the item that caused it.
type ItemError struct {
	Item string
	Err  error
}

func (e *ItemError) Error() string {
	return e.Item + ": " + e.Err.Error()
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Item is one feed handed to the bulk decoder. Page marks HTML input that
// still needs extraction.
type Item struct {
	Name string
	Data []byte
	Page bool
}

// Outcome is the decode result of the item at the same index.
type Outcome struct {
	Name       string
	Result     feed.Result
	SnapshotID string
	Err        error
}

// BulkDecoder decodes many feeds with a fixed pool of workers.
type BulkDecoder struct {
	service *FeedService
	workers int
	store   bool
}

// NewBulkDecoder creates a BulkDecoder. When store is true every decoded
// record is saved as a snapshot.
func NewBulkDecoder(service *FeedService, workers int, store bool) *BulkDecoder {
	if workers <= 0 {
		workers = 4
	}
	return &BulkDecoder{
		service: service,
		workers: workers,
		store:   store,
	}
}

// DecodeAll decodes every item. The outcomes are index-aligned with items;
// the error is a *TaskError listing each failed item, or the context error
// when the run was cut short.
func (bd *BulkDecoder) DecodeAll(ctx context.Context, items []Item) ([]Outcome, error) {
	outcomes := make([]Outcome, len(items))
	err := bd.run(ctx, len(items), func(idx int) error {
		out := bd.decode(ctx, items[idx])
		outcomes[idx] = out
		if out.Err != nil {
			return &ItemError{Item: out.Name, Err: out.Err}
		}
		return nil
	})
	return outcomes, err
}

func (bd *BulkDecoder) decode(ctx context.Context, item Item) Outcome {
	out := Outcome{Name: item.Name}
	if item.Page {
		out.Result, out.Err = bd.service.DecodePage(ctx, string(item.Data))
	} else {
		out.Result, out.Err = bd.service.DecodeBlob(ctx, item.Data)
	}
	if out.Err != nil || !bd.store {
		return out
	}
	snap, err := bd.service.Save(ctx, out.Result.Record)
	if err != nil {
		out.Err = fmt.Errorf("store snapshot: %w", err)
		return out
	}
	out.SnapshotID = snap.ID
	return out
}

func (bd *BulkDecoder) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < bd.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}
	var taskErr TaskError
	for err := range errCh {
		taskErr.append(err)
	}
	return taskErr.asError()
}
