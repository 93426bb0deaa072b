// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/descent-ml/descent/method"
	"github.com/descent-ml/descent/objective"
	"github.com/descent-ml/descent/optimize"
)

func minimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Minimize a built-in objective from a starting point.",
		Example: `  descent minimize --objective rosenbrock --method bfgs --start -1.2,1
  descent minimize --objective sphere --dim 10 --method cg --track 1`,
		RunE: runMinimize,
	}

	flags := cmd.Flags()
	flags.String("objective", "rosenbrock", "objective to minimize (rosenbrock, sphere)")
	flags.String("method", "bfgs", "descent method (steepest, cg, bfgs, cholbfgs, fixedrate, momentum, hypergradient)")
	flags.Int("dim", 2, "problem dimension (used when --start is omitted)")
	flags.Float64Slice("start", nil, "starting point, comma-separated")
	flags.Float64("gtol", optimize.DefaultGradTolerance, "gradient-norm stopping tolerance")
	flags.Int("max-iters", 1000, "iteration budget (0 for unlimited)")
	flags.Int("max-calls", 0, "objective evaluation budget (0 for unlimited)")
	flags.Float64("lr", 0, "learning rate for the fixed-rate methods (0 for the method default)")
	flags.Int("track", 0, "tracking verbosity (1 prints evaluations, 2 adds the line-search trace)")
	for _, name := range []string{"objective", "method", "dim", "gtol", "max-iters", "max-calls", "lr", "track"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

func runMinimize(cmd *cobra.Command, args []string) error {
	start, err := cmd.Flags().GetFloat64Slice("start")
	if err != nil {
		return err
	}
	x0, err := startingPoint(start, viper.GetInt("dim"))
	if err != nil {
		return err
	}
	dim := len(x0)

	fdf, err := pickObjective(viper.GetString("objective"), dim)
	if err != nil {
		return err
	}
	core, err := pickMethod(viper.GetString("method"), dim, viper.GetFloat64("lr"))
	if err != nil {
		return err
	}

	opts := []optimize.Option{
		optimize.WithGradTolerance(viper.GetFloat64("gtol")),
	}
	if n := viper.GetInt("max-iters"); n > 0 {
		opts = append(opts, optimize.WithMaxIterations(n))
	}
	if n := viper.GetInt("max-calls"); n > 0 {
		opts = append(opts, optimize.WithMaxCalls(n))
	}
	if v := viper.GetInt("track"); v > 0 {
		opts = append(opts, optimize.WithTracking(os.Stderr, v))
	}

	res, err := optimize.Optimize(fdf, core, x0, opts...)
	if err != nil {
		return err
	}

	status := "limit reached"
	if res.Converged {
		status = "converged"
	}
	fmt.Printf("status:     %s\n", status)
	fmt.Printf("argument:   %v\n", res.Argument)
	fmt.Printf("gradient:   %v\n", res.Gradient)
	if res.Iterations >= 0 {
		fmt.Printf("iterations: %d\n", res.Iterations)
	}
	if res.Calls >= 0 {
		fmt.Printf("calls:      %d\n", res.Calls)
	}
	return nil
}

func startingPoint(start []float64, dim int) ([]float64, error) {
	if len(start) > 0 {
		return start, nil
	}
	if dim <= 0 {
		return nil, errors.New("minimize: --dim must be positive when --start is omitted")
	}
	// Offset from the origin so gradients do not vanish at the start.
	x0 := make([]float64, dim)
	for i := range x0 {
		x0[i] = -1
	}
	return x0, nil
}

func pickObjective(name string, dim int) (objective.Func, error) {
	switch name {
	case "rosenbrock":
		return objective.Rosenbrock(dim), nil
	case "sphere":
		return objective.Sphere(dim), nil
	default:
		return nil, errors.Errorf("minimize: unknown objective %q", name)
	}
}

func pickMethod(name string, dim int, lr float64) (method.Core, error) {
	switch name {
	case "steepest":
		return method.NewSteepestDescent(dim, method.SteepestConfig{}), nil
	case "cg":
		return method.NewConjugateGradient(dim, method.ConjugateGradientConfig{}), nil
	case "bfgs":
		return method.NewBFGS(dim, method.BFGSConfig{}), nil
	case "cholbfgs":
		return method.NewCholBFGS(dim, method.CholBFGSConfig{}), nil
	case "fixedrate":
		return method.NewFixedRate(dim, method.FixedRateConfig{LR: lr}), nil
	case "momentum":
		return method.NewMomentum(dim, method.MomentumConfig{LR: lr}), nil
	case "hypergradient":
		return method.NewHyperGradient(dim, method.HyperGradientConfig{LR: lr}), nil
	default:
		return nil, errors.Errorf("minimize: unknown method %q", name)
	}
}
