/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/InputParameters"
	"github.com/notargets/godwr/adaptivity"
	CD "github.com/notargets/godwr/model_problems/ConvectionDiffusion1D"
	"github.com/notargets/godwr/utils"
)

// EstimateCmd represents the estimate command
var EstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Error estimates for a uniform refinement study",
	Long: `
Solves the convection diffusion model problem on a sequence of uniformly
refined meshes and compares the goal oriented error estimate and the sum of
the cell indicators against the true error of the manufactured solution,

godwr estimate -I params.yaml --csv study.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var ip *InputParameters.InputParameters1D
		if ip, err = processInput(cmd); err != nil {
			return
		}
		switch viper.GetString("profile") {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		case "":
		default:
			return fmt.Errorf("unknown profile type %q, want cpu or mem", viper.GetString("profile"))
		}
		ip.Print(cmd.OutOrStdout())
		var levels []Level
		if levels, err = RunStudy(cmd.Context(), ip, logger); err != nil {
			return
		}
		PrintStudy(cmd.OutOrStdout(), levels)
		if len(ip.CSVFile) != 0 {
			err = WriteCSV(ip.CSVFile, ip, levels)
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(EstimateCmd)
	ip := InputParameters.NewInputParameters1D()
	EstimateCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for input parameters like:\n\t- PolynomialOrder\n\t- Kappa, Beta, C\n\t- Solution")
	EstimateCmd.Flags().IntP("k", "k", ip.K, "number of elements on the coarsest mesh")
	EstimateCmd.Flags().IntP("n", "n", ip.PolynomialOrder, "polynomial degree")
	EstimateCmd.Flags().IntP("levels", "l", ip.Levels, "number of uniform refinements")
	EstimateCmd.Flags().String("csv", "", "write the study to a CSV file for tools/convOrder")
	EstimateCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	for _, name := range []string{"k", "n", "levels", "csv", "profile"} {
		_ = viper.BindPFlag(name, EstimateCmd.Flags().Lookup(name))
	}
}

// processInput reads the parameters file and overlays any flag or GODWR_*
// environment setting
func processInput(cmd *cobra.Command) (ip *InputParameters.InputParameters1D, err error) {
	var fileName string
	ip = InputParameters.NewInputParameters1D()
	if fileName, err = cmd.Flags().GetString("inputParametersFile"); err != nil {
		return
	}
	if len(fileName) != 0 {
		if fileName, err = homedir.Expand(fileName); err != nil {
			return
		}
		if err = ip.ReadFile(fileName); err != nil {
			return
		}
	}
	if viper.IsSet("k") {
		ip.K = viper.GetInt("k")
	}
	if viper.IsSet("n") {
		ip.PolynomialOrder = viper.GetInt("n")
	}
	if viper.IsSet("levels") {
		ip.Levels = viper.GetInt("levels")
	}
	if viper.IsSet("csv") {
		if ip.CSVFile, err = homedir.Expand(viper.GetString("csv")); err != nil {
			return
		}
	}
	err = ip.Validate()
	return
}

// Level is one mesh of a refinement study
type Level struct {
	K           int
	H           float64
	Dofs        int
	Estimate    float64
	SumEta      float64
	TrueError   float64
	Effectivity float64 // Estimate / TrueError, NaN when the true error vanishes
	Elapsed     time.Duration
}

// RunStudy estimates the goal error on the coarse mesh of ip and each of its
// uniform refinements
func RunStudy(ctx context.Context, ip *InputParameters.InputParameters1D, log *zap.Logger) (levels []Level, err error) {
	var (
		sol  CD.Manufactured
		goal CD.Goal
		mesh = FE1D.UniformMesh(ip.XMin, ip.XMax, ip.K)
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if sol, err = CD.NewManufactured(ip.Solution); err != nil {
		return
	}
	if len(ip.GoalSubdomain) == 2 {
		a, b := ip.GoalSubdomain[0], ip.GoalSubdomain[1]
		goal.Omega = func(x float64) bool { return x >= a && x <= b }
	}
	for l := 0; l <= ip.Levels; l++ {
		var lev Level
		if lev, err = runLevel(ctx, ip, mesh, sol, goal, log); err != nil {
			err = fmt.Errorf("level %d, K = %d: %w", l, mesh.NumCells(), err)
			return
		}
		log.Info("refinement level", zap.Int("level", l), zap.Int("K", lev.K),
			zap.Float64("estimate", lev.Estimate), zap.Float64("effectivity", lev.Effectivity))
		levels = append(levels, lev)
		mesh = mesh.Refine()
	}
	return
}

func runLevel(ctx context.Context, ip *InputParameters.InputParameters1D, mesh *FE1D.Mesh,
	sol CD.Manufactured, goal CD.Goal, log *zap.Logger) (lev Level, err error) {
	var (
		pr    *CD.Problem
		ec    *adaptivity.ErrorControl
		est   *adaptivity.Estimate
		start = time.Now()
	)
	if pr, err = CD.NewProblem(mesh, ip.PolynomialOrder, ip.Kappa, ip.Beta, ip.C, sol, goal); err != nil {
		return
	}
	opts := adaptivity.Options{
		ParallelDegree: ip.ParallelDegree,
		Logger:         log,
	}
	if ec, err = pr.NewErrorControl(opts); err != nil {
		return
	}
	u, bcs, err := pr.SolvePrimal(nil)
	if err != nil {
		return
	}
	if est, err = ec.Estimate(ctx, u, bcs); err != nil {
		return
	}
	eta, err := ec.Indicators(ctx, est)
	if err != nil {
		return
	}
	lev = Level{
		K:           mesh.NumCells(),
		H:           mesh.HMax(),
		Dofs:        pr.V.Dim(),
		Estimate:    est.Value,
		SumEta:      eta.Sum(),
		TrueError:   pr.TrueError(u),
		Effectivity: math.NaN(),
		Elapsed:     time.Since(start),
	}
	if lev.TrueError != 0 {
		lev.Effectivity = lev.Estimate / lev.TrueError
	}
	log.Debug("level complete", zap.Duration("elapsed", lev.Elapsed), zap.String("memory", utils.GetMemUsage()))
	return
}

func PrintStudy(w io.Writer, levels []Level) {
	fmt.Fprintf(w, "%6s %12s %14s %14s %14s %10s %8s\n",
		"K", "h", "estimate", "sum(eta)", "true error", "eff", "order")
	for i, lev := range levels {
		order := "-"
		if i > 0 {
			order = fmt.Sprintf("%8.3f", ObservedOrder(levels[i-1].H, lev.H, levels[i-1].TrueError, lev.TrueError))
		}
		fmt.Fprintf(w, "%6d %12.5e %14.6e %14.6e %14.6e %10.5f %8s\n",
			lev.K, lev.H, lev.Estimate, lev.SumEta, lev.TrueError, lev.Effectivity, order)
	}
}

// ObservedOrder is the convergence rate between two meshes of sizes h0 > h1
func ObservedOrder(h0, h1, e0, e1 float64) float64 {
	return math.Log(math.Abs(e0/e1)) / math.Log(h0/h1)
}

// WriteCSV appends the study to fileName with the columns
// Title, K, P, H, Dofs, Estimate, SumEta, TrueError, Effectivity
func WriteCSV(fileName string, ip *InputParameters.InputParameters1D, levels []Level) (err error) {
	var (
		f      *os.File
		header bool
	)
	if fi, statErr := os.Stat(fileName); statErr != nil || fi.Size() == 0 {
		header = true
	}
	if f, err = os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)
	if header {
		if err = w.Write([]string{"Title", "K", "P", "H", "Dofs", "Estimate", "SumEta", "TrueError", "Effectivity"}); err != nil {
			return
		}
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 17, 64) }
	for _, lev := range levels {
		rec := []string{
			ip.Title, strconv.Itoa(lev.K), strconv.Itoa(ip.PolynomialOrder), ff(lev.H), strconv.Itoa(lev.Dofs),
			ff(lev.Estimate), ff(lev.SumEta), ff(lev.TrueError), ff(lev.Effectivity),
		}
		if err = w.Write(rec); err != nil {
			return
		}
	}
	w.Flush()
	return w.Error()
}
