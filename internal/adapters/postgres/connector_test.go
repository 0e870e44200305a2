package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmarket/identity-api/internal/testutil"
)

func TestConnector_ConnectMemoizesHandle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	var opens atomic.Int32
	open := func(ctx context.Context) (*sql.DB, error) {
		opens.Add(1)
		return sql.Open("pgx", testDSN())
	}
	c := NewConnectorWithOpen(open, nil)
	defer func() { _ = c.Close() }()

	first, err := c.Connect(context.Background())
	require.NoError(t, err)
	second, err := c.Connect(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
}

func TestConnector_ConcurrentConnectOpensOnce(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	var opens atomic.Int32
	open := func(ctx context.Context) (*sql.DB, error) {
		opens.Add(1)
		time.Sleep(20 * time.Millisecond) // widen the race window
		return sql.Open("pgx", testDSN())
	}
	c := NewConnectorWithOpen(open, nil)
	defer func() { _ = c.Close() }()

	const workers = 16
	handles := make([]*sql.DB, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := c.Connect(context.Background())
			assert.NoError(t, err)
			handles[i] = db
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for _, db := range handles {
		assert.Same(t, handles[0], db)
	}
}

func TestConnector_FailedConnectNotMemoized(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	var opens atomic.Int32
	open := func(ctx context.Context) (*sql.DB, error) {
		if opens.Add(1) == 1 {
			return nil, errors.New("store down")
		}
		return sql.Open("pgx", testDSN())
	}
	c := NewConnectorWithOpen(open, nil)
	defer func() { _ = c.Close() }()

	_, err := c.Connect(context.Background())
	require.Error(t, err)

	// A failed attempt must not poison later ones.
	db, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, int32(2), opens.Load())
}

func TestConnector_ProbeFalseWhenOpenFails(t *testing.T) {
	open := func(ctx context.Context) (*sql.DB, error) {
		return nil, errors.New("store down")
	}
	c := NewConnectorWithOpen(open, nil)

	assert.False(t, c.Probe(context.Background(), 100*time.Millisecond))
}

func TestConnector_ProbeTrueAgainstLiveStore(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	open := func(ctx context.Context) (*sql.DB, error) {
		return sql.Open("pgx", testDSN())
	}
	c := NewConnectorWithOpen(open, nil)
	defer func() { _ = c.Close() }()

	assert.True(t, c.Probe(context.Background(), 2*time.Second))
}

func TestConnector_CloseIdempotent(t *testing.T) {
	c := NewConnectorWithOpen(func(context.Context) (*sql.DB, error) {
		return nil, errors.New("never opened")
	}, nil)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
