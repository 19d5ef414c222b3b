package loophound_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/generator"
)

// ExampleNew demonstrates building a session over a hand-made graph and
// driving it to a verdict. A single agent steps along a three-node path and
// the run ends when it parks on the terminal node.
func ExampleNew() {
	// 1. Define the graph using pure Go structs.
	g, err := domain.NewGraph(
		[]domain.Node{
			{ID: 0, Label: "entry"},
			{ID: 1, Label: "middle"},
			{ID: 2, Label: "exit"},
		},
		[]domain.Edge{
			{SourceID: 0, TargetID: 1},
			{SourceID: 1, TargetID: 2},
		},
	)
	if err != nil {
		log.Fatal(err)
	}

	// 2. One agent, stepping once per round.
	sess, err := loophound.New(g, loophound.WithPrograms("S"))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Execute rounds until the run terminates.
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

	// Output:
	// verdict: ALL_FINISHED_CORRECT
}

// ExampleNew_generated demonstrates a reproducible exercise on a generated
// graph: the seed pins the structure, and an always-declaring program ends
// the run in one round with a verdict against the hidden ground truth.
func ExampleNew_generated() {
	g, err := generator.New(generator.WithSeed(7)).GraphWithSize(12)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := loophound.New(g, loophound.WithPrograms("L"))
	if err != nil {
		log.Fatal(err)
	}

	outcome, err := sess.Step(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("terminal:", outcome.Terminal())

	// Output:
	// terminal: true
}
