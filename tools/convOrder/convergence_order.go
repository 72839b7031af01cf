package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

var (
	csvFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a refinement study from godwr estimate --csv")
	flag.Parse()
	csvFile = *csvFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	f, err := os.Open(csvFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	studies, err := readCSV(f)
	if err != nil {
		panic(err)
	}
	keys := make([]string, 0, len(studies))
	for key := range studies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		cs := studies[key]
		fmt.Printf("Title = %s, Order = %d\n", cs.title, cs.order)
		fmt.Printf("%6s %14s %14s %10s %10s\n", "K", "estimate", "true error", "p(est)", "p(err)")
		pEst, pErr := cs.Orders()
		for i := range cs.K {
			fmt.Printf("%6d %14.6e %14.6e %10.4f %10.4f\n", cs.K[i], cs.estimate[i], cs.trueError[i], pEst[i], pErr[i])
		}
	}
}

type ConvergenceStudy struct {
	title                          string
	order                          int
	K                              []int
	h, estimate, sumEta, trueError []float64
}

func NewConvergenceStudy(title string, order int) *ConvergenceStudy {
	return &ConvergenceStudy{
		title: title,
		order: order,
	}
}

func (cs *ConvergenceStudy) Add(K int, h, estimate, sumEta, trueError float64) {
	cs.K = append(cs.K, K)
	cs.h = append(cs.h, h)
	cs.estimate = append(cs.estimate, estimate)
	cs.sumEta = append(cs.sumEta, sumEta)
	cs.trueError = append(cs.trueError, trueError)
}

// Orders are the observed convergence rates of the estimate and the true
// error against the previous mesh, NaN for the first
func (cs *ConvergenceStudy) Orders() (pEst, pErr []float64) {
	pEst = make([]float64, len(cs.K))
	pErr = make([]float64, len(cs.K))
	for i := range cs.K {
		if i == 0 {
			pEst[i], pErr[i] = math.NaN(), math.NaN()
			continue
		}
		lh := math.Log(cs.h[i-1] / cs.h[i])
		pEst[i] = math.Log(math.Abs(cs.estimate[i-1]/cs.estimate[i])) / lh
		pErr[i] = math.Log(math.Abs(cs.trueError[i-1]/cs.trueError[i])) / lh
	}
	return
}

// readCSV groups the rows by title and polynomial order. The columns are
// Title, K, P, H, Dofs, Estimate, SumEta, TrueError, Effectivity.
func readCSV(r io.Reader) (studies map[string]*ConvergenceStudy, err error) {
	var (
		records                    [][]string
		ok                         bool
		cs                         *ConvergenceStudy
		h, estimate, sumEta, trErr float64
		K, P                       int
	)
	studies = make(map[string]*ConvergenceStudy)
	if records, err = csv.NewReader(bufio.NewReader(r)).ReadAll(); err != nil {
		return
	}
	for i, rec := range records {
		if i == 0 || rec[0] == "Title" {
			continue
		}
		if len(rec) < 8 {
			err = fmt.Errorf("line %d: %d columns, want at least 8", i+1, len(rec))
			return
		}
		title, ktxt, ptxt := rec[0], rec[1], rec[2]
		if K, err = strconv.Atoi(ktxt); err != nil {
			return
		}
		if P, err = strconv.Atoi(ptxt); err != nil {
			return
		}
		for j, dst := range []*float64{&h, &estimate, &sumEta, &trErr} {
			col := []int{3, 5, 6, 7}[j]
			if *dst, err = strconv.ParseFloat(rec[col], 64); err != nil {
				return
			}
		}
		combTitle := title + ptxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, P)
			studies[combTitle] = cs
		}
		cs.Add(K, h, estimate, sumEta, trErr)
	}
	return
}
