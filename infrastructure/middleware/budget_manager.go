// Package middleware provides cross-cutting concerns for the generation
// pipeline. It implements the middleware/wrapper pattern to keep business
// logic clean while adding budget enforcement, metrics, and resilience
// capabilities.
package middleware

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-copyforge/infrastructure/pipeline"
	"github.com/ahrav/go-copyforge/internal/domain"
)

var _ pipeline.Budget = (*BudgetManager)(nil)

// Budget defines resource consumption limits for a generation run.
// It specifies maximum allowed tokens and provider calls to prevent
// runaway costs.
type Budget struct {
	// MaxTokens limits the total number of tokens that can be consumed.
	// Zero means unlimited token usage.
	MaxTokens int64

	// MaxCalls limits the total number of provider calls that can be made.
	// Zero means unlimited calls.
	MaxCalls int64
}

// Usage tracks cumulative resource consumption.
type Usage struct {
	// Tokens is the total token count charged so far.
	Tokens int64

	// Calls is the number of provider calls authorized so far.
	Calls int64
}

// BudgetObserver provides observability hooks for budget operations.
// Implementations can add tracing, metrics, and logging without coupling
// observability concerns to core budget logic.
type BudgetObserver interface {
	// Reserved is called after a successful reservation.
	Reserved(usage Usage, budget Budget)

	// Rejected is called when a reservation is refused.
	Rejected(limitType string, limit, attempted int64, budget Budget)

	// Committed is called after actual consumption is recorded.
	Committed(usage Usage, budget Budget)
}

// BudgetExceededError reports which limit a reservation would break.
// It unwraps to domain.ErrBudgetExceeded so callers can match the
// sentinel without knowing this package.
type BudgetExceededError struct {
	// LimitType is "tokens" or "calls".
	LimitType string

	// Limit is the configured maximum; Attempted is the value the
	// reservation would have reached.
	Limit     int64
	Attempted int64
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s budget exceeded: attempted %d of %d", e.LimitType, e.Attempted, e.Limit)
}

// Unwrap makes errors.Is(err, domain.ErrBudgetExceeded) succeed.
func (e *BudgetExceededError) Unwrap() error { return domain.ErrBudgetExceeded }

// BudgetManager enforces token and call limits across a generation run.
// Calls are charged at reservation time; tokens are checked against the
// caller's estimate at reservation and charged at their actual value on
// commit, so concurrent reservations can slightly overshoot the token
// limit but never the call limit.
//
// The manager is safe for concurrent use.
type BudgetManager struct {
	mu       sync.Mutex
	budget   Budget
	used     Usage
	observer BudgetObserver
}

// NewBudgetManager creates a budget manager with the specified limits and
// optional observer. Negative limits are rejected.
func NewBudgetManager(budget Budget, observer BudgetObserver) (*BudgetManager, error) {
	if budget.MaxTokens < 0 {
		return nil, fmt.Errorf("budget manager: max_tokens cannot be negative, got %d", budget.MaxTokens)
	}
	if budget.MaxCalls < 0 {
		return nil, fmt.Errorf("budget manager: max_calls cannot be negative, got %d", budget.MaxCalls)
	}
	return &BudgetManager{budget: budget, observer: observer}, nil
}

// Reserve authorizes one provider call expected to consume
// estimatedTokens. It returns a *BudgetExceededError (matching
// domain.ErrBudgetExceeded) when the call would break a limit.
func (bm *BudgetManager) Reserve(estimatedTokens int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.budget.MaxCalls > 0 && bm.used.Calls+1 > bm.budget.MaxCalls {
		err := &BudgetExceededError{
			LimitType: "calls",
			Limit:     bm.budget.MaxCalls,
			Attempted: bm.used.Calls + 1,
		}
		if bm.observer != nil {
			bm.observer.Rejected(err.LimitType, err.Limit, err.Attempted, bm.budget)
		}
		return err
	}

	attempted := bm.used.Tokens + int64(estimatedTokens)
	if bm.budget.MaxTokens > 0 && attempted > bm.budget.MaxTokens {
		err := &BudgetExceededError{
			LimitType: "tokens",
			Limit:     bm.budget.MaxTokens,
			Attempted: attempted,
		}
		if bm.observer != nil {
			bm.observer.Rejected(err.LimitType, err.Limit, err.Attempted, bm.budget)
		}
		return err
	}

	bm.used.Calls++
	if bm.observer != nil {
		bm.observer.Reserved(bm.used, bm.budget)
	}
	return nil
}

// Commit records the actual token consumption of a completed call.
func (bm *BudgetManager) Commit(actualTokens int) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bm.used.Tokens += int64(actualTokens)
	if bm.observer != nil {
		bm.observer.Committed(bm.used, bm.budget)
	}
}

// Usage returns a snapshot of current consumption.
func (bm *BudgetManager) Usage() Usage {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.used
}

// Remaining reports how much budget is left. Unlimited dimensions return
// -1.
func (bm *BudgetManager) Remaining() (tokens, calls int64) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	tokens, calls = -1, -1
	if bm.budget.MaxTokens > 0 {
		tokens = bm.budget.MaxTokens - bm.used.Tokens
		if tokens < 0 {
			tokens = 0
		}
	}
	if bm.budget.MaxCalls > 0 {
		calls = bm.budget.MaxCalls - bm.used.Calls
		if calls < 0 {
			calls = 0
		}
	}
	return tokens, calls
}
