package domain

// Outcome is the round result signal consumed by presentation layers.
type Outcome string

const (
	// OutcomeContinue means the round ended without a verdict; more rounds
	// may follow.
	OutcomeContinue Outcome = "CONTINUE"
	// OutcomeLoopCorrect means an agent declared a loop and the graph does
	// contain one.
	OutcomeLoopCorrect Outcome = "LOOP_CORRECT"
	// OutcomeLoopFalsePositive means an agent declared a loop on a loop-free
	// graph.
	OutcomeLoopFalsePositive Outcome = "LOOP_FALSE_POSITIVE"
	// OutcomeAllFinished means every agent reached a terminating node, which
	// is the correct claim for a loop-free graph.
	OutcomeAllFinished Outcome = "ALL_FINISHED_CORRECT"
)

// Terminal reports whether the outcome ends the run.
func (o Outcome) Terminal() bool {
	return o != OutcomeContinue && o != ""
}

// Success reports whether the players' claim matched the ground truth.
func (o Outcome) Success() bool {
	return o == OutcomeLoopCorrect || o == OutcomeAllFinished
}

func (o Outcome) String() string {
	return string(o)
}
