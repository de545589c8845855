package middleware

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-copyforge/internal/domain"
)

// recordingObserver captures observer callbacks for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	reserved  int
	rejected  int
	committed int
	lastLimit string
	lastUsage Usage
}

func (r *recordingObserver) Reserved(usage Usage, budget Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserved++
	r.lastUsage = usage
}

func (r *recordingObserver) Rejected(limitType string, limit, attempted int64, budget Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
	r.lastLimit = limitType
}

func (r *recordingObserver) Committed(usage Usage, budget Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed++
	r.lastUsage = usage
}

func TestNewBudgetManager_Validation(t *testing.T) {
	t.Run("valid limits", func(t *testing.T) {
		bm, err := NewBudgetManager(Budget{MaxTokens: 1000, MaxCalls: 10}, nil)
		require.NoError(t, err)
		assert.NotNil(t, bm)
	})

	t.Run("zero limits mean unlimited", func(t *testing.T) {
		bm, err := NewBudgetManager(Budget{}, nil)
		require.NoError(t, err)

		for i := 0; i < 100; i++ {
			assert.NoError(t, bm.Reserve(1_000_000))
		}
	})

	t.Run("negative tokens rejected", func(t *testing.T) {
		_, err := NewBudgetManager(Budget{MaxTokens: -1}, nil)
		assert.Error(t, err)
	})

	t.Run("negative calls rejected", func(t *testing.T) {
		_, err := NewBudgetManager(Budget{MaxCalls: -1}, nil)
		assert.Error(t, err)
	})
}

func TestBudgetManager_CallLimit(t *testing.T) {
	bm, err := NewBudgetManager(Budget{MaxCalls: 2}, nil)
	require.NoError(t, err)

	assert.NoError(t, bm.Reserve(100))
	assert.NoError(t, bm.Reserve(100))

	err = bm.Reserve(100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBudgetExceeded, "error unwraps to the domain sentinel")

	var bex *BudgetExceededError
	require.ErrorAs(t, err, &bex)
	assert.Equal(t, "calls", bex.LimitType)
	assert.Equal(t, int64(2), bex.Limit)
	assert.Equal(t, int64(3), bex.Attempted)
}

func TestBudgetManager_TokenLimit(t *testing.T) {
	bm, err := NewBudgetManager(Budget{MaxTokens: 1000}, nil)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(400))
	bm.Commit(400)
	require.NoError(t, bm.Reserve(400))
	bm.Commit(400)

	// 800 committed; another 400-token estimate would break the limit.
	err = bm.Reserve(400)
	require.Error(t, err)

	var bex *BudgetExceededError
	require.ErrorAs(t, err, &bex)
	assert.Equal(t, "tokens", bex.LimitType)
	assert.Equal(t, int64(1200), bex.Attempted)

	// A smaller call still fits.
	assert.NoError(t, bm.Reserve(200))
}

func TestBudgetManager_UsageAndRemaining(t *testing.T) {
	bm, err := NewBudgetManager(Budget{MaxTokens: 1000, MaxCalls: 5}, nil)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(300))
	bm.Commit(250)

	usage := bm.Usage()
	assert.Equal(t, int64(1), usage.Calls)
	assert.Equal(t, int64(250), usage.Tokens, "commit charges actual, not estimated")

	tokens, calls := bm.Remaining()
	assert.Equal(t, int64(750), tokens)
	assert.Equal(t, int64(4), calls)
}

func TestBudgetManager_RemainingUnlimited(t *testing.T) {
	bm, err := NewBudgetManager(Budget{}, nil)
	require.NoError(t, err)

	tokens, calls := bm.Remaining()
	assert.Equal(t, int64(-1), tokens)
	assert.Equal(t, int64(-1), calls)
}

func TestBudgetManager_ObserverCallbacks(t *testing.T) {
	obs := &recordingObserver{}
	bm, err := NewBudgetManager(Budget{MaxCalls: 1}, obs)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(100))
	bm.Commit(90)
	require.Error(t, bm.Reserve(100))

	assert.Equal(t, 1, obs.reserved)
	assert.Equal(t, 1, obs.committed)
	assert.Equal(t, 1, obs.rejected)
	assert.Equal(t, "calls", obs.lastLimit)
	assert.Equal(t, int64(90), obs.lastUsage.Tokens)
}

func TestBudgetManager_ConcurrentReservations(t *testing.T) {
	const limit = 50
	bm, err := NewBudgetManager(Budget{MaxCalls: limit}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bm.Reserve(10) == nil {
				bm.Commit(10)
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, accepted, "exactly MaxCalls reservations succeed under contention")
	assert.Equal(t, int64(limit), bm.Usage().Calls)
}
