package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/config"
	"github.com/gitrdm/hyperprobcheck/internal/encode"
	"github.com/gitrdm/hyperprobcheck/internal/hyperparse"
	"github.com/gitrdm/hyperprobcheck/internal/logging"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/quantifier"
	"github.com/gitrdm/hyperprobcheck/internal/result"
	"github.com/gitrdm/hyperprobcheck/internal/solver"
)

// newCheckCmd builds the `check` subcommand: spec section 6's CLI
// surface (modelPath, hyperString, stutterLength, maxSchedProb,
// checkModel, checkProperty, dontRestrictSched) plus SPEC_FULL.md's
// solver-process additions (solverPath, solverTimeout).
func newCheckCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse a model and hyperproperty and decide the hyperproperty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, v)
		},
	}

	if err := config.BindFlags(cmd, v); err != nil {
		// Flag registration failure is a programmer error (duplicate or
		// malformed flag names), not a runtime condition to recover from.
		panic(fmt.Sprintf("hyperprobcheck: %v", err))
	}
	return cmd
}

func runCheck(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		fc, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		fc.MergeInto(v)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("hyperprobcheck: building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.ModelPath == "" {
		return fmt.Errorf("hyperprobcheck: --%s is required", config.KeyModelPath)
	}

	f, err := os.Open(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: opening model %s: %v", checkerrors.ErrParseFailure, cfg.ModelPath, err)
	}
	defer func() { _ = f.Close() }()

	model, err := mdpmodel.ParsePrism(f)
	if err != nil {
		return err
	}
	log.Debug("parsed model", zap.Int("states", len(model.States())))

	if cfg.CheckModel {
		logging.Result("model %s parses OK (%d states)", cfg.ModelPath, len(model.States()))
		return nil
	}

	if cfg.HyperString == "" {
		return fmt.Errorf("hyperprobcheck: --%s is required", config.KeyHyperString)
	}

	formula, err := hyperparse.Parse(cfg.HyperString)
	if err != nil {
		return err
	}

	if cfg.CheckProperty {
		logging.Result("hyperproperty parses OK")
		return nil
	}

	prefix, err := quantifier.Analyze(formula)
	if err != nil {
		return err
	}

	logging.Phase("Encoding scheduler...")
	sess, err := encode.NewSession(model, prefix, encode.Config{
		StutterBound:      cfg.StutterLength,
		MaxSchedProb:      cfg.MaxSchedProb,
		DontRestrictSched: cfg.DontRestrictSched,
	})
	if err != nil {
		return err
	}

	logging.Phase("Encoding stutter-scheduler...")
	logging.Phase("Encoding quantifiers and non-quantified formula...")
	encodeStart := time.Now()
	interp, err := sess.Finish(!cfg.AllowForallSched)
	if err != nil {
		return err
	}
	encodingTime := time.Since(encodeStart)
	bools, reals := sess.Reg.CountBySort()
	log.Debug("encoding complete",
		zap.Duration("encoding_time", encodingTime),
		zap.Int("subformulas", sess.Index.Len()),
		zap.Int("constraints", sess.Prog.Len()),
		zap.Int("bool_vars", bools),
		zap.Int("real_vars", reals),
	)

	logging.Phase("Checking SMT formula...")
	slv := solver.New(solver.Config{
		Path:       cfg.SolverPath,
		Args:       []string{"-in"},
		Timeout:    cfg.SolverTimeout,
		MaxRetries: 3,
	}, log)

	solveStart := time.Now()
	verdict, smtModel, solveErr := slv.Solve(context.Background(), sess.Prog)
	solveTime := time.Since(solveStart)
	if solveErr != nil && !errors.Is(solveErr, checkerrors.ErrSolverUnknown) {
		return solveErr
	}

	outcome, extractErr := result.Extract(sess, interp, verdict, smtModel, solveTime)
	printOutcome(outcome, encodingTime)
	if extractErr != nil {
		return extractErr
	}
	return nil
}

func printOutcome(outcome *result.Outcome, encodingTime time.Duration) {
	switch outcome.Verdict {
	case result.Holds:
		logging.Result("The property HOLDS!")
		printWitness(outcome.Witness)
	case result.Violated:
		logging.Error("The property DOES NOT hold!")
		printWitness(outcome.Witness)
	default:
		logging.Error("Solver returns unknown")
	}

	fmt.Printf("\nTime to encode in seconds: %.2f\n", encodingTime.Seconds())
	fmt.Printf("Time required by solver in seconds: %.2f\n", outcome.Stats.WallTime.Seconds())
	fmt.Printf("Constraints emitted: %d (bool vars: %d, real vars: %d)\n",
		outcome.Stats.Constraints, outcome.Stats.BoolVars, outcome.Stats.RealVars)
}

func printWitness(w *result.Witness) {
	if w == nil {
		return
	}

	fmt.Println("\nChoose scheduler probabilities as follows:")
	for _, sp := range w.SchedulerActionSets {
		fmt.Printf("  At a state with enabled actions %s choose action %s with probability %s\n",
			strings.Join(sp.ActionSet, ","), sp.Action, result.Decimal(sp.Prob).String())
	}

	if len(w.StutterDurations) > 0 {
		fmt.Println("\nChoose stutter-schedulers as follows:")
		for _, sd := range w.StutterDurations {
			fmt.Printf("  For quantifier t%d: for state %d and action %s choose stuttering duration %d\n",
				sd.StutterIdx, sd.State, sd.Action, sd.Duration)
		}
	}

	fmt.Println("\nSatisfying state tuples:")
	for _, tuple := range w.SatisfyingTuples {
		parts := make([]string, len(tuple))
		for i, e := range tuple {
			parts[i] = e.String()
		}
		fmt.Printf("  (%s)\n", strings.Join(parts, ", "))
	}
}
