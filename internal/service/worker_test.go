package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/generator"
)

func bulkItems(t *testing.T) []Item {
	t.Helper()
	gen := generator.New(generator.Config{Seed: 5, Pages: true})
	var items []Item
	for i := 0; i < 12; i++ {
		corruption := generator.CorruptNone
		if i == 4 {
			corruption = generator.CorruptBadFlag
		}
		if i == 9 {
			corruption = generator.CorruptMissingAt
		}
		f, err := gen.Feed(fmt.Sprintf("p%07d", i), corruption)
		require.NoError(t, err)
		item := Item{Name: fmt.Sprintf("item-%02d", i), Data: f.Blob}
		if i%3 == 0 {
			item.Data, item.Page = []byte(f.Page), true
		}
		items = append(items, item)
	}
	return items
}

func TestBulkDecoderAggregatesFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &stubStore{}
	svc := newTestService(store, nil, Options{})
	outcomes, err := NewBulkDecoder(svc, 3, true).DecodeAll(context.Background(), bulkItems(t))

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 2)
	assert.ErrorIs(t, err, feed.ErrDomain)

	var failed []string
	for _, e := range taskErr.Errors {
		var itemErr *ItemError
		require.ErrorAs(t, e, &itemErr)
		failed = append(failed, itemErr.Item)
	}
	assert.ElementsMatch(t, []string{"item-04", "item-09"}, failed)

	require.Len(t, outcomes, 12)
	for i, out := range outcomes {
		assert.Equal(t, fmt.Sprintf("item-%02d", i), out.Name)
		if i == 4 || i == 9 {
			assert.Error(t, out.Err)
			assert.Empty(t, out.SnapshotID)
			continue
		}
		assert.NoError(t, out.Err)
		assert.Equal(t, fmt.Sprintf("p%07d", i), out.Result.Record.Login)
		assert.NotEmpty(t, out.SnapshotID)
	}
	assert.Len(t, store.saved, 10)
}

func TestBulkDecoderWithoutStore(t *testing.T) {
	svc := newTestService(nil, nil, Options{})
	items := bulkItems(t)[3:6]

	outcomes, err := NewBulkDecoder(svc, 0, false).DecodeAll(context.Background(), items)
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 1)
	assert.Empty(t, outcomes[0].SnapshotID)
}

func TestBulkDecoderStoreFailure(t *testing.T) {
	store := &stubStore{saveErr: errors.New("bolt down")}
	svc := newTestService(store, nil, Options{})

	_, err := NewBulkDecoder(svc, 2, true).DecodeAll(context.Background(), bulkItems(t)[:2])
	assert.ErrorIs(t, err, store.saveErr)
}

func TestBulkDecoderCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBulkDecoder(newTestService(nil, nil, Options{}), 2, false).DecodeAll(ctx, bulkItems(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkDecoderEmpty(t *testing.T) {
	outcomes, err := NewBulkDecoder(newTestService(nil, nil, Options{}), 2, false).DecodeAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestTaskErrorMessage(t *testing.T) {
	var te TaskError
	assert.Equal(t, "no errors", te.Error())
	te.append(&ItemError{Item: "a.json", Err: errors.New("bad")})
	assert.Equal(t, "a.json: bad", te.Error())
	te.append(&ItemError{Item: "b.json", Err: errors.New("worse")})
	assert.Equal(t, "2 items failed: a.json: bad; b.json: worse;", te.Error())
}
