package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLocks_WritersExcludeReaders(t *testing.T) {
	locks := NewProjectLocks()
	unlock := locks.Lock("p1")

	acquired := make(chan struct{})
	go func() {
		defer locks.RLock("p1")()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("reader got in while the writer held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	// Other projects are independent.
	locks.Lock("p2")()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired the lock")
	}
}

func TestProjectLocks_ReadersShare(t *testing.T) {
	locks := NewProjectLocks()
	first := locks.RLock("p1")
	second := locks.RLock("p1")
	second()
	first()
}

func TestWBSService_ConcurrentCreatesGetUniqueCodes(t *testing.T) {
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	e := newEngineWith(database, db.NewSQLiteUnitOfWork(database))
	p := e.project(t, "Paralelo")

	const workers = 8
	var wg sync.WaitGroup
	codes := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := e.wbs.CreateNode(context.Background(), NodeInput{
				ProjectID: p.ID, Name: fmt.Sprintf("Frente %d", i), DurationDays: 1,
			})
			errs[i] = err
			if err == nil {
				codes[i] = n.WbsCode
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	want := make([]string, workers)
	for i := range want {
		want[i] = fmt.Sprint(i + 1)
	}
	assert.ElementsMatch(t, want, codes)
}
