// Package bench drives a list.List with many concurrent pushers, poppers and
// readers, then checks that no value was lost or duplicated on the way.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/conclist/config"
	"github.com/conclist/datastruct/list"
	"github.com/conclist/lib/logger"
	"github.com/conclist/lib/sync/wait"
	"github.com/conclist/lib/utils"
	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStalled   = errors.New("bench: round did not finish before timeout")
	ErrLost      = errors.New("bench: pushed value missing")
	ErrDuplicate = errors.New("bench: value accounted for more than once")
	ErrPhantom   = errors.New("bench: found a value that was never pushed")
)

// Report summarises a finished run
type Report struct {
	RunID     string
	Pushed    int
	Popped    int
	Decimals  int
	Survivors []string // head first
	Elapsed   time.Duration
}

type runner struct {
	props   *config.BenchProperties
	timeout time.Duration
	l       *list.List[string]

	values   [][]string
	progress []atomic.Int64
	pushed   map[string]struct{}
	popped   [][]string
}

// Run performs one push round, one pop round and one decimal round.
func Run(ctx context.Context, props *config.BenchProperties) (*Report, error) {
	start := time.Now()
	r := &runner{
		props:    props,
		timeout:  time.Duration(props.Timeout) * time.Second,
		l:        list.New[string](),
		values:   make([][]string, props.Pushers),
		progress: make([]atomic.Int64, props.Pushers),
		pushed:   make(map[string]struct{}, props.Pushers*props.Items),
		popped:   make([][]string, props.Poppers),
	}
	for w := range r.values {
		r.values[w] = make([]string, props.Items)
		for i := range r.values[w] {
			v := ksuid.New().String()
			r.values[w][i] = v
			r.pushed[v] = struct{}{}
		}
	}
	report := &Report{
		RunID:  ksuid.New().String(),
		Pushed: len(r.pushed),
	}
	logger.Info(fmt.Sprintf("run %s: %d pushers x %d items, %d poppers x %d pops, %d checkers",
		report.RunID, props.Pushers, props.Items, props.Poppers, props.Pops, props.Checkers))

	if err := r.pushRound(ctx); err != nil {
		return nil, fmt.Errorf("push round: %w", err)
	}
	if err := r.checkMembership(ctx); err != nil {
		return nil, fmt.Errorf("membership: %w", err)
	}
	if err := r.popRound(ctx); err != nil {
		return nil, fmt.Errorf("pop round: %w", err)
	}
	survivors, popped, err := r.checkConservation()
	if err != nil {
		return nil, fmt.Errorf("conservation: %w", err)
	}
	report.Survivors = survivors
	report.Popped = popped

	decimals, err := decimalRound(ctx, props.Pushers, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("decimal round: %w", err)
	}
	report.Decimals = decimals

	report.Elapsed = time.Since(start)
	return report, nil
}

// round runs fn n times concurrently and waits for every call to return.
func round(ctx context.Context, timeout time.Duration, n int, fn func(ctx context.Context, i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	w := &wait.Wait{}
	for i := 0; i < n; i++ {
		i := i
		w.Add(1)
		eg.Go(func() error {
			defer w.Done()
			return fn(egCtx, i)
		})
	}
	if w.WaitWithTimeout(timeout) {
		return ErrStalled
	}
	return eg.Wait()
}

func (r *runner) pushRound(ctx context.Context) error {
	var pushing atomic.Int32
	pushing.Store(int32(r.props.Pushers))

	return round(ctx, r.timeout, r.props.Pushers+r.props.Checkers, func(ctx context.Context, i int) error {
		if i >= r.props.Pushers {
			return r.checkPushed(ctx, &pushing)
		}
		defer pushing.Add(-1)
		for j, v := range r.values[i] {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.l.Push(v)
			r.progress[i].Store(int64(j + 1))
		}
		return nil
	})
}

// checkPushed keeps looking up values whose Push has already returned until
// every pusher is done. Nothing is removed during the push round, so each of
// them must be found.
func (r *runner) checkPushed(ctx context.Context, pushing *atomic.Int32) error {
	if r.props.Pushers == 0 {
		return nil
	}
	for pushing.Load() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := utils.RandomInt(r.props.Pushers)
		done := r.progress[w].Load()
		if done == 0 {
			continue
		}
		v := r.values[w][utils.RandomInt(int(done))]
		if !list.Contains(r.l, v) {
			return fmt.Errorf("%w: %s", ErrLost, v)
		}
	}
	return nil
}

func (r *runner) checkMembership(ctx context.Context) error {
	err := round(ctx, r.timeout, r.props.Pushers, func(ctx context.Context, i int) error {
		for _, v := range r.values[i] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !list.Contains(r.l, v) {
				return fmt.Errorf("%w: %s", ErrLost, v)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if stranger := ksuid.New().String(); list.Contains(r.l, stranger) {
		return fmt.Errorf("%w: %s", ErrPhantom, stranger)
	}
	return nil
}

func (r *runner) popRound(ctx context.Context) error {
	var popping atomic.Int32
	popping.Store(int32(r.props.Poppers))

	return round(ctx, r.timeout, r.props.Poppers+r.props.Checkers, func(ctx context.Context, i int) error {
		if i >= r.props.Poppers {
			return r.walkWhilePopping(ctx, &popping)
		}
		defer popping.Add(-1)
		for j := 0; j < r.props.Pops; j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok := r.l.RemoveOne()
			if !ok {
				return nil
			}
			if r.props.Verbose {
				logger.Debug("popped: ", v)
			}
			r.popped[i] = append(r.popped[i], v)
		}
		return nil
	})
}

// walkWhilePopping traverses the list while poppers run. A walk may still
// report values popped behind it, but never one it has already reported nor
// one that was never pushed.
func (r *runner) walkWhilePopping(ctx context.Context, popping *atomic.Int32) error {
	for popping.Load() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen := make(map[string]struct{})
		var bad error
		r.l.ForEach(func(i int, v string) bool {
			if _, ok := r.pushed[v]; !ok {
				bad = fmt.Errorf("%w: %s", ErrPhantom, v)
				return false
			}
			if _, ok := seen[v]; ok {
				bad = fmt.Errorf("%w: %s seen twice in one walk", ErrDuplicate, v)
				return false
			}
			seen[v] = struct{}{}
			return true
		})
		if bad != nil {
			return bad
		}
	}
	return nil
}

// checkConservation verifies popped and surviving values together are
// exactly the pushed ones.
func (r *runner) checkConservation() (survivors []string, popped int, err error) {
	count := make(map[string]int, len(r.pushed))
	for _, vals := range r.popped {
		for _, v := range vals {
			count[v]++
			popped++
		}
	}
	r.l.ForEach(func(i int, v string) bool {
		count[v]++
		survivors = append(survivors, v)
		return true
	})

	for v, c := range count {
		if _, ok := r.pushed[v]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrPhantom, v)
		}
		if c > 1 {
			return nil, 0, fmt.Errorf("%w: %s counted %d times", ErrDuplicate, v, c)
		}
	}
	if len(count) != len(r.pushed) {
		return nil, 0, fmt.Errorf("%w: %d of %d accounted for", ErrLost, len(count), len(r.pushed))
	}
	return survivors, popped, nil
}

// decimalRound pushes n amounts in cents concurrently, then looks each one
// up by numeric value with a different scale, which == would not match.
func decimalRound(ctx context.Context, n int, timeout time.Duration) (int, error) {
	amounts := list.New[decimal.Decimal]()
	err := round(ctx, timeout, n, func(ctx context.Context, i int) error {
		amounts.Push(decimal.New(int64(i), -2))
		return nil
	})
	if err != nil {
		return 0, err
	}

	var found atomic.Int32
	err = round(ctx, timeout, n, func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := decimal.New(int64(i)*10, -3)
		if !amounts.ContainsFunc(target.Equal) {
			return fmt.Errorf("%w: %s", ErrLost, target)
		}
		found.Add(1)
		return nil
	})
	return int(found.Load()), err
}
