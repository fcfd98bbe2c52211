package memory_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/artpar/minapi/adapters/clock"
	"github.com/artpar/minapi/adapters/memory"
	"github.com/artpar/minapi/domain/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	First string
	Last  string
}

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newStore() *memory.Store[person] {
	return memory.NewStore[person]("person", memory.WithClock(clock.NewStepping(baseTime, time.Second)))
}

func TestStore_AddAllocatesSequentialIDs(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		rec := store.Add(ctx, person{First: "p"})
		assert.Equal(t, want, rec.ID)
	}
	assert.Equal(t, 5, store.Len(ctx))
}

func TestStore_ConcurrentAddNeverDuplicates(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	const n = 200
	ids := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = store.Add(ctx, person{First: "c"}).ID
		}(i)
	}
	wg.Wait()

	sort.Ints(ids)
	for i, id := range ids {
		require.Equal(t, i+1, id, "ids must be exactly 1..N")
	}
}

func TestStore_InsertConflictKeepsOriginal(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 5, person{First: "v"})
	require.NoError(t, err)

	_, err = store.Insert(ctx, 5, person{First: "v2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, resource.ErrConflict)

	var ce *resource.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 5, ce.ID)

	got, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Data.First)
}

func TestStore_ConcurrentInsertSameIDOnlyOneWins(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	const n = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Insert(ctx, 7, person{First: "x"}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestStore_InsertDoesNotAdvanceCounter(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 2, person{First: "explicit"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Add(ctx, person{}).ID)
	// 2 is taken by the explicit insert and must be skipped.
	assert.Equal(t, 3, store.Add(ctx, person{}).ID)
	assert.Equal(t, 4, store.Add(ctx, person{}).ID)
}

func TestStore_DeletedIDsAreNotReused(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	store.Add(ctx, person{})
	second := store.Add(ctx, person{})
	require.NoError(t, store.Delete(ctx, second.ID))

	assert.Equal(t, 3, store.Add(ctx, person{}).ID)
}

func TestStore_GetMissing(t *testing.T) {
	store := newStore()

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestStore_ReplaceKeepsIDAndCreatedAt(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	orig := store.Add(ctx, person{First: "Ann", Last: "Lee"})

	updated, err := store.Replace(ctx, orig.ID, person{First: "Anne"})
	require.NoError(t, err)
	assert.Equal(t, orig.ID, updated.ID)
	assert.Equal(t, orig.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(orig.UpdatedAt))

	got, err := store.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, person{First: "Anne"}, got.Data, "payload must be fully overwritten")
}

func TestStore_ReplaceAfterDelete(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	rec := store.Add(ctx, person{First: "Ann"})
	other := store.Add(ctx, person{First: "Bob"})
	require.NoError(t, store.Delete(ctx, rec.ID))

	_, err := store.Replace(ctx, rec.ID, person{First: "ghost"})
	assert.ErrorIs(t, err, resource.ErrNotFound)

	assert.Equal(t, 1, store.Len(ctx))
	got, err := store.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Data.First)
}

func TestStore_DeleteMissing(t *testing.T) {
	store := newStore()

	err := store.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestStore_ListOrderedByID(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 10, person{First: "ten"})
	require.NoError(t, err)
	store.Add(ctx, person{First: "one"})
	store.Add(ctx, person{First: "two"})

	list := store.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{list[0].ID, list[1].ID, list[2].ID})
}

func TestStore_Find(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	store.Add(ctx, person{First: "Ann", Last: "Lee"})
	store.Add(ctx, person{First: "Bob", Last: "Lee"})
	store.Add(ctx, person{First: "Cid", Last: "Ray"})

	lees := store.Find(ctx, func(p person) bool { return p.Last == "Lee" })
	require.Len(t, lees, 2)
	assert.Equal(t, "Ann", lees[0].Data.First)
	assert.Equal(t, "Bob", lees[1].Data.First)
}

func TestStore_GetDuringReplaceNeverTorn(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	rec := store.Add(ctx, person{First: "a", Last: "a"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		flip := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			v := person{First: "a", Last: "a"}
			if flip {
				v = person{First: "b", Last: "b"}
			}
			flip = !flip
			_, _ = store.Replace(ctx, rec.ID, v)
		}
	}()

	for i := 0; i < 1000; i++ {
		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		require.Equal(t, got.Data.First, got.Data.Last, "observed a torn write")
	}
	close(stop)
	wg.Wait()
}

type recordingObserver struct {
	mu    sync.Mutex
	ops   []string
	sizes []int
	errs  int
}

func (o *recordingObserver) OnOperation(resourceName, op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, resourceName+":"+op)
	if err != nil {
		o.errs++
	}
}

func (o *recordingObserver) OnSize(resourceName string, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sizes = append(o.sizes, size)
}

func TestStore_Observer(t *testing.T) {
	obs := &recordingObserver{}
	store := memory.NewStore[person]("person", memory.WithObserver(obs))
	ctx := context.Background()

	rec := store.Add(ctx, person{})
	_, _ = store.Insert(ctx, rec.ID, person{})
	require.NoError(t, store.Delete(ctx, rec.ID))

	assert.Equal(t, []string{"person:add", "person:insert", "person:delete"}, obs.ops)
	assert.Equal(t, []int{1, 0}, obs.sizes)
	assert.Equal(t, 1, obs.errs)
}

func TestStore_Clear(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	store.Add(ctx, person{})
	store.Add(ctx, person{})
	store.Clear()

	assert.Equal(t, 0, store.Len(ctx))
	assert.Equal(t, 1, store.Add(ctx, person{}).ID)
}
