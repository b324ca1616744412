// Package utils contains the worker helpers shared by the log decoders and the command line tool.
package utils

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// firstErrors keeps the errors of a parallel run. Once one worker fails the rest are cancelled
// and their context.Canceled errors are dropped.
type firstErrors struct {
	mu     sync.Mutex
	err    error
	cancel context.CancelFunc
}

func (fe *firstErrors) store(err error) {
	fe.mu.Lock()
	if fe.err == nil || !errors.Is(err, context.Canceled) {
		fe.err = multierr.Combine(fe.err, err)
	}
	fe.mu.Unlock()
	fe.cancel()
}

func (fe *firstErrors) recovered(thePanic interface{}) {
	fe.store(errors.Errorf("got panic running something in parallel: %v", thePanic))
}

func (fe *firstErrors) result() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.err
}

// GroupWorkParallel splits totalSize work items into at most ParallelFactor contiguous groups and
// works each group on its own goroutine. The first failing item cancels the remaining work; the
// returned error combines everything that failed before the workers noticed.
func GroupWorkParallel(ctx context.Context, totalSize int, groupWork GroupWorkFunc) error {
	if totalSize <= 0 {
		return nil
	}
	numGroups := min(ParallelFactor, totalSize)
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := &firstErrors{cancel: cancel}

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNum := groupNum
		work := func() {
			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == numGroups-1 {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := groupSize*(groupNum+1) + thisExtra
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				for memberNum, workNum := 0, from; workNum < to; memberNum, workNum = memberNum+1, workNum+1 {
					if err := ctx.Err(); err != nil {
						errs.store(err)
						return
					}
					if err := memberWork(memberNum, workNum); err != nil {
						errs.store(err)
						return
					}
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		}
		// Done is not deferred: on a panic it must run after the callback has stored the error.
		utils.PanicCapturingGoWithCallback(func() {
			work()
			wait.Done()
		}, func(thePanic interface{}) {
			errs.recovered(thePanic)
			wait.Done()
		})
	}
	wait.Wait()
	return errs.result()
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := &firstErrors{cancel: cancel}

	var wg sync.WaitGroup
	for _, f := range fs {
		f := f
		wg.Add(1)
		utils.PanicCapturingGoWithCallback(func() {
			if err := f(ctx); err != nil {
				errs.store(err)
			}
			wg.Done()
		}, func(thePanic interface{}) {
			errs.recovered(thePanic)
			wg.Done()
		})
	}

	wg.Wait()
	return time.Since(start), errs.result()
}
