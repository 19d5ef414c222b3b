package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/internal/config"
	presentation "github.com/aretw0/loophound/internal/presentation/graph"
	"github.com/aretw0/loophound/internal/presentation/tui"
	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/runner"
	"github.com/aretw0/loophound/pkg/session"
)

// RunExercise drives one loop-detection exercise to completion.
func RunExercise(cfg *config.Config, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	interactive := isInteractive() && !opts.Headless

	if interactive {
		tui.PrintBanner()
	}

	sess, src, err := buildSession(cfg, logger)
	if err != nil {
		return err
	}

	manager, closeStore := setupPersistence(cfg, logger)
	defer func() { _ = closeStore() }()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.SessionID != "" {
		if err := hydrateSession(sigCtx, sess, manager, opts.SessionID); err != nil {
			return fmt.Errorf("failed to init session: %w", err)
		}
	}

	persist := func() {
		if opts.SessionID == "" {
			return
		}
		if err := manager.Save(sigCtx, opts.SessionID, sess.State()); err != nil {
			logger.Warn("failed to persist snapshot", "session_id", opts.SessionID, "err", err)
		}
	}

	ctrl := runner.NewController(sess,
		runner.WithLogger(logger),
		runner.WithRoundObserver(func(outcome domain.Outcome, state *domain.RunState) {
			printRound(outcome, state)
			persist()
		}),
	)
	defer ctrl.Stop()

	var runErr error
	if opts.Headless {
		runErr = runHeadless(sigCtx, ctrl, sess, cfg.IntervalMs)
	} else {
		runErr = runInteractive(sigCtx, ctrl, sess, src, cfg.IntervalMs)
	}

	if sess.Outcome().Terminal() {
		printVerdict(sess, interactive)
	} else if sigCtx.Signal() != nil {
		fmt.Println()
		printSystemMessage("Interrupted after %d round(s).", sess.State().Rounds)
	}

	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	return handleExecutionError(runErr)
}

// hydrateSession restores a persisted snapshot, or reserves the ID when the
// session is new.
func hydrateSession(ctx context.Context, sess *loophound.Session, manager *session.Manager, sessionID string) error {
	state, err := manager.LoadOrStart(ctx, sessionID, sess.AgentCount(), sess.State().Agents[0].CurrentNode)
	if err != nil {
		return err
	}
	if state.Rounds > 0 || state.Terminated() {
		if err := sess.Restore(state); err != nil {
			return err
		}
		printSystemMessage("Resuming session '%s' at round %d.", sessionID, state.Rounds)
		return nil
	}
	printSystemMessage("Session '%s' active.", sessionID)
	return nil
}

func runHeadless(ctx context.Context, ctrl *runner.Controller, sess *loophound.Session, intervalMs int) error {
	if err := ctrl.StartAuto(ctx, time.Duration(intervalMs)*time.Millisecond); err != nil {
		return err
	}
	for sess.Outcome() == domain.OutcomeContinue {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
		if !ctrl.Running() {
			break
		}
	}
	return nil
}

func runInteractive(ctx context.Context, ctrl *runner.Controller, sess *loophound.Session, src *memory.ProgramSource, intervalMs int) error {
	printSystemMessage("Exercise ready: %d node(s), %d agent(s). Type 'help' for commands.",
		sess.Graph().NodeCount(), sess.AgentCount())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if sess.Outcome().Terminal() {
			return nil
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "help":
			printHelp()
		case "step":
			if _, err := ctrl.StepOnce(ctx); err != nil {
				printSystemMessage("step failed: %v", err)
			}
		case "auto":
			if err := ctrl.StartAuto(ctx, time.Duration(intervalMs)*time.Millisecond); err != nil {
				printSystemMessage("%v", err)
			} else {
				printSystemMessage("Auto-progress running every %dms; 'stop' to pause.", intervalMs)
			}
		case "stop":
			ctrl.Stop()
			printSystemMessage("Auto-progress stopped.")
		case "reset":
			ctrl.Reset()
			printSystemMessage("Run reset; agents back on the start node.")
		case "status":
			printRound(sess.Outcome(), sess.State())
		case "graph":
			fmt.Println(presentation.GenerateRevealed(sess.Graph(), sess.State()))
		case "program":
			if len(fields) < 3 {
				printSystemMessage("usage: program <agent-id> <instructions>")
				continue
			}
			agentID, err := strconv.Atoi(fields[1])
			if err != nil {
				printSystemMessage("invalid agent id %q", fields[1])
				continue
			}
			if err := src.SetProgram(agentID, fields[2]); err != nil {
				printSystemMessage("%v", err)
				continue
			}
			printSystemMessage("Agent %d program updated; takes effect next round.", agentID)
		case "quit", "exit":
			return nil
		default:
			printSystemMessage("unknown command %q; type 'help'", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  step                   execute one round
  auto                   run rounds on the configured interval
  stop                   pause auto-progress
  reset                  restart the run on the same graph
  status                 show agent positions and round count
  graph                  show the revealed portion as Mermaid
  program <id> <code>    replace an agent's instructions (S N C L)
  quit                   leave the exercise`)
}

func printRound(outcome domain.Outcome, state *domain.RunState) {
	fmt.Printf("round %d | outcome %s\n", state.Rounds, outcome)
	for _, a := range state.Agents {
		marker := " "
		if a.Finished {
			marker = "*"
		}
		fmt.Printf("  agent %d%s node %d path %v\n", a.ID, marker, a.CurrentNode, a.Path)
	}
}

func printVerdict(sess *loophound.Session, interactive bool) {
	outcome := sess.Outcome()

	if !interactive {
		fmt.Printf("verdict: %s\n", outcome)
		return
	}

	md := fmt.Sprintf("# Verdict: %s\n\nRounds: %d\n\n```mermaid\n%s```\n",
		outcome, sess.State().Rounds,
		presentation.GenerateMermaid(sess.Graph(), presentation.OverlayFromState(sess.State())))

	render := tui.NewRenderer()
	out, err := render(md)
	if err != nil {
		fmt.Printf("verdict: %s\n", outcome)
		return
	}
	fmt.Print(out)
}
