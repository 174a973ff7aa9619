// Package main provides the autograd command line tool.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/autodiff"
	"github.com/born-ml/autograd/optim"
	"github.com/born-ml/autograd/serialization"
	"github.com/born-ml/autograd/tensor"
)

const version = "v0.1.0-dev"

func usage() {
	fmt.Println("autograd - reverse-mode automatic differentiation for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version            Show version")
	fmt.Println("  fit [flags]        Fit a small network to sin(x) and optionally save it")
	fmt.Println("  inspect <file>     List the tensors of a .safetensors file")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("autograd %s\n", version)
	case "fit":
		err = fit(os.Args[2:])
	case "inspect":
		err = inspect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		klog.Errorf("%s failed: %+v", os.Args[1], err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

type fitConfig struct {
	steps     int
	hidden    int
	samples   int
	lr        float64
	optimizer string
	dtype     tensor.DataType
	out       string
}

func fit(args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	klog.InitFlags(fs)
	cfg := fitConfig{}
	fs.IntVar(&cfg.steps, "steps", 2000, "Number of optimizer steps.")
	fs.IntVar(&cfg.hidden, "hidden", 16, "Width of the hidden layer.")
	fs.IntVar(&cfg.samples, "samples", 64, "Number of points sampled from [-pi, pi].")
	fs.Float64Var(&cfg.lr, "lr", 0.01, "Learning rate.")
	fs.StringVar(&cfg.optimizer, "optimizer", "adam", "Optimizer: sgd or adam.")
	dtype := fs.String("dtype", "float32", "Data type: float16, float32 or float64.")
	fs.StringVar(&cfg.out, "out", "", "Save the fitted parameters to this .safetensors file.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if cfg.dtype, err = tensor.ParseDataType(*dtype); err != nil {
		return err
	}
	return runFit(cfg)
}

func runFit(cfg fitConfig) error {
	if cfg.steps <= 0 || cfg.samples <= 0 || cfg.hidden <= 0 {
		return errors.New("steps, samples and hidden must be positive")
	}
	ctx := autodiff.NewContext(autodiff.WithDType(cfg.dtype))
	rng := rand.New(rand.NewPCG(42, 0))

	xs := make([]float64, cfg.samples)
	ys := make([]float64, cfg.samples)
	for i := range xs {
		xs[i] = -math.Pi + 2*math.Pi*float64(i)/float64(max(cfg.samples-1, 1))
		ys[i] = math.Sin(xs[i])
	}
	x, err := ctx.FromSlice(xs, tensor.Shape{cfg.samples, 1}, autodiff.Named("x"))
	if err != nil {
		return err
	}
	y, err := ctx.FromSlice(ys, tensor.Shape{cfg.samples, 1}, autodiff.Named("y"))
	if err != nil {
		return err
	}

	layout := []struct {
		name  string
		shape tensor.Shape
	}{
		{"w1", tensor.Shape{1, cfg.hidden}},
		{"b1", tensor.Shape{cfg.hidden}},
		{"w2", tensor.Shape{cfg.hidden, 1}},
		{"b2", tensor.Shape{1}},
	}
	params := make(map[string]*autodiff.Tensor, len(layout))
	list := make([]*autodiff.Tensor, 0, len(layout))
	for _, p := range layout {
		data := make([]float64, p.shape.NumElements())
		scale := 1 / math.Sqrt(float64(p.shape[0]))
		for i := range data {
			data[i] = scale * rng.NormFloat64()
		}
		t, err := ctx.Parameter(data, p.shape, autodiff.Named(p.name))
		if err != nil {
			return err
		}
		params[p.name] = t
		list = append(list, t)
	}

	var opt optim.Optimizer
	switch cfg.optimizer {
	case "sgd":
		opt = optim.NewSGD(list, optim.SGDConfig{LR: cfg.lr, Momentum: 0.9})
	case "adam":
		opt = optim.NewAdam(list, optim.AdamConfig{LR: cfg.lr})
	default:
		return errors.Errorf("unknown optimizer %q", cfg.optimizer)
	}

	var loss *autodiff.Tensor
	for step := range cfg.steps {
		opt.ZeroGrad()
		err := autodiff.Catch(func() {
			h := x.MatMul(params["w1"]).Add(params["b1"]).Tanh()
			loss = h.MatMul(params["w2"]).Add(params["b2"]).Sub(y).Pow(2).Mean()
		})
		if err != nil {
			return errors.WithMessagef(err, "forward pass at step %d", step)
		}
		if err := loss.Backward(); err != nil {
			return errors.WithMessagef(err, "backward pass at step %d", step)
		}
		if err := opt.Step(); err != nil {
			return err
		}
		if step%max(cfg.steps/10, 1) == 0 {
			value, _ := loss.Item()
			klog.V(1).Infof("step %s: loss=%.6f lr=%g live=%s", humanize.Comma(int64(step)), value, opt.LR(), ctx.Stats())
		}
	}
	final, err := loss.Item()
	if err != nil {
		return err
	}
	fmt.Printf("final loss after %s steps: %.6f\n", humanize.Comma(int64(cfg.steps)), final)

	if cfg.out == "" {
		return nil
	}
	metadata := map[string]string{
		"optimizer": cfg.optimizer,
		"steps":     fmt.Sprint(cfg.steps),
		"loss":      fmt.Sprintf("%g", final),
	}
	if err := serialization.Save(cfg.out, params, metadata); err != nil {
		return err
	}
	fmt.Printf("saved %d tensors to %s\n", len(params), cfg.out)
	return nil
}

func inspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	klog.InitFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one file")
	}
	f, err := serialization.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := f.Verify(); err != nil {
		return err
	}

	for _, name := range f.Names() {
		info, _ := f.Info(name)
		size := uint64(info.DataOffsets[1] - info.DataOffsets[0])
		fmt.Printf("%-24s %-4s %-16v %s\n", name, info.DType, info.Shape, humanize.Bytes(size))
	}
	for k, v := range f.Metadata() {
		fmt.Printf("# %s = %s\n", k, v)
	}
	return nil
}
