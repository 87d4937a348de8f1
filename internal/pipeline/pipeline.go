package pipeline

import "github.com/pipewright/pipewright/internal/stage"

// Flavor distinguishes read-style aggregation pipelines from write-style
// update pipelines. The builder treats both identically; the validator
// restricts which stages an update pipeline may carry.
type Flavor int

const (
	FlavorAggregation Flavor = iota
	FlavorUpdate
)

// String returns the manifest spelling of the flavor.
func (f Flavor) String() string {
	switch f {
	case FlavorAggregation:
		return "aggregation"
	case FlavorUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Accumulator carries the stage list built so far during a fold.
// It is internal to pipeline construction: StageFuncs receive it, append
// exactly one stage, and hand it back. It holds nothing else.
type Accumulator struct {
	stages []stage.Stage
}

// Append returns a new accumulator with one stage appended.
// The receiver is not mutated - the backing array is never shared with a
// grown slice, so accumulators can be reused and composed freely.
func (a Accumulator) Append(s stage.Stage) Accumulator {
	stages := make([]stage.Stage, len(a.stages)+1)
	copy(stages, a.stages)
	stages[len(a.stages)] = s
	return Accumulator{stages: stages}
}

// Stages returns the accumulated stages. Exposed for StageFuncs that need
// to observe the fold; the builder itself only reads it once, at the end.
func (a Accumulator) Stages() []stage.Stage {
	out := make([]stage.Stage, len(a.stages))
	copy(out, a.stages)
	return out
}

// StageFunc is the unit of composition: a pure transformation from one
// accumulator to the next. Stage constructors in this package return
// StageFuncs; callers may also hand-roll their own.
type StageFunc func(Accumulator) Accumulator

// Pipeline is an immutable, ordered sequence of stage descriptors tagged
// with its flavor. It carries no other runtime payload.
type Pipeline struct {
	flavor Flavor
	stages []stage.Stage
}

// Aggregation folds the stage functions, in order, into a read pipeline.
// Zero stage functions yield a valid empty pipeline.
func Aggregation(fns ...StageFunc) Pipeline {
	return build(FlavorAggregation, fns)
}

// Update folds the stage functions, in order, into a write pipeline.
// Zero stage functions yield a valid empty pipeline.
func Update(fns ...StageFunc) Pipeline {
	return build(FlavorUpdate, fns)
}

// build is the left fold: a fresh empty accumulator, each StageFunc
// applied to the previous result, strictly in argument order.
func build(flavor Flavor, fns []StageFunc) Pipeline {
	acc := Accumulator{}
	for _, fn := range fns {
		acc = fn(acc)
	}
	return Pipeline{flavor: flavor, stages: acc.stages}
}

// Flavor returns the pipeline's flavor.
func (p Pipeline) Flavor() Flavor {
	return p.flavor
}

// Len returns the number of stages.
func (p Pipeline) Len() int {
	return len(p.stages)
}

// Stages returns a copy of the ordered stage list.
func (p Pipeline) Stages() []stage.Stage {
	out := make([]stage.Stage, len(p.stages))
	copy(out, p.stages)
	return out
}
