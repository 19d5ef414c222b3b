/*
Package loophound simulates programmable agents walking a directed
functional graph (every node has at most one outgoing edge) so that a user
can decide, from partial observations only, whether the graph contains a
cycle.

Each agent runs a tiny instruction program over the alphabet S (step),
N (no-op), C (conditional on co-location) and L (declare loop). The round
scheduler advances all agents in lockstep: conditionals are resolved against
a pre-move snapshot, consecutive steps collapse into one atomic multi-step
move, and a declared loop ends the run with a verdict against the graph's
ground truth.

# Usage

	g, err := generator.New(generator.WithSeed(7)).GraphWithSize(12)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := loophound.New(g,
		loophound.WithPrograms("SCL", "S"),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for {
		outcome, err := sess.Step(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if outcome.Terminal() {
			fmt.Println("verdict:", outcome)
			break
		}
	}

The session is the explicit owner of all run state; drive it manually as
above or wrap it in a runner.Controller for timed auto-progress.
*/
package loophound
