package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/gradefeed/internal/config"
)

func TestFromConfigWithoutURI(t *testing.T) {
	client, err := FromConfig(context.Background(), config.GraphConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewNeo4jClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingURI)
}

func TestMemoryClientBatches(t *testing.T) {
	mem := NewMemoryClient()
	params := map[string]any{"id": "a"}
	require.NoError(t, mem.ExecuteBatch(context.Background(), []Statement{
		{Query: "CREATE (n)", Params: params},
		{Query: "RETURN 1"},
	}))
	params["id"] = "mutated"

	batches := mem.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "a", batches[0][0].Params["id"])
	assert.Nil(t, batches[0][1].Params)
	assert.Empty(t, mem.WriteCalls())
}

func TestMemoryClientQueuesResults(t *testing.T) {
	mem := NewMemoryClient()
	mem.PushReadResult(Result{Records: []Record{{"n": int64(1)}}})

	res, err := mem.ExecuteRead(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)

	res, err = mem.ExecuteRead(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Len(t, mem.ReadCalls(), 2)
}

func TestMemoryClientErrors(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemoryClient().WithError(boom).WithConnectivityError(boom)

	_, err := mem.ExecuteWrite(context.Background(), "CREATE (n)", nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, mem.ExecuteBatch(context.Background(), []Statement{{Query: "CREATE (n)"}}), boom)
	assert.ErrorIs(t, mem.VerifyConnectivity(context.Background()), boom)
}
