package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/observe-l/sclfec/fec"
	"github.com/observe-l/sclfec/internal/sim"
	"github.com/observe-l/sclfec/internal/spf"
)

type runOptions struct {
	noRandom       bool
	saveInterval   time.Duration
	returnInterval time.Duration
	metricsAddr    string
	interactive    bool
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run <param-file>...",
		Short: "Run the simulations described by parameter files",
		Long: `Runs one simulation per parameter file, side by side.

Results are merged into each file's res_file every save interval and when a
simulation ends. With --interactive, lines read from stdin control every
running simulation:
  s  save results now
  r  print the results so far
  >  simulate more trials at the current SNR
  <  simulate fewer trials at the current SNR
  n  go to the next SNR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runFiles(ctx, args, o, cmd.InOrStdin(), cmd.OutOrStdout(), log)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.noRandom, "no-random", false, "use a fixed random seed")
	f.DurationVar(&o.saveInterval, "save-interval", 600*time.Second, "interval between result saves")
	f.DurationVar(&o.returnInterval, "return-interval", 10*time.Second, "interval between status lines")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&o.interactive, "interactive", false, "read control commands from stdin")
	return cmd
}

// command is an interactive request for a running simulation.
type command byte

const (
	cmdSave   command = 's'
	cmdReport command = 'r'
	cmdMore   command = '>'
	cmdLess   command = '<'
	cmdNext   command = 'n'
)

func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if len(line) != 1 {
		return 0, false
	}
	switch c := command(line[0]); c {
	case cmdSave, cmdReport, cmdMore, cmdLess, cmdNext:
		return c, true
	}
	return 0, false
}

func runFiles(ctx context.Context, files []string, o runOptions, in io.Reader, out io.Writer, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := sim.NewMetrics(reg)
	if o.metricsAddr != "" {
		srv := &http.Server{Addr: o.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server")
			}
		}()
		defer srv.Close()
	}

	sims := make([]*sim.Simulation, 0, len(files))
	defer func() {
		for _, s := range sims {
			s.Close()
		}
	}()
	for i, file := range files {
		seed := int64(1)
		if !o.noRandom {
			seed = time.Now().UnixNano() + int64(i)
		}
		s, err := openSimulation(file, seed, metrics, log)
		if err != nil {
			return err
		}
		sims = append(sims, s)
	}

	cmds := make([]chan command, len(sims))
	for i := range cmds {
		cmds[i] = make(chan command, 16)
	}
	if o.interactive {
		go readCommands(in, cmds)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range sims {
		entry := log.WithFields(logrus.Fields{"spf": files[i], "run": s.ID()})
		g.Go(func() error {
			return runSimulation(ctx, s, o, cmds[i], out, entry)
		})
	}
	return g.Wait()
}

func openSimulation(file string, seed int64, metrics *sim.Metrics, log *logrus.Logger) (*sim.Simulation, error) {
	p, err := spf.Load(file)
	if err != nil {
		return nil, err
	}
	codec, err := fec.New(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	cfg, err := sim.ParseConfig(p)
	if err != nil {
		codec.Close()
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	s, err := sim.New(cfg, codec, sim.Options{
		Code:    codeName(file),
		Seed:    seed,
		Metrics: metrics,
		Log:     log.WithField("spf", file),
	})
	if err != nil {
		codec.Close()
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return s, nil
}

// readCommands fans every recognized stdin line out to all simulations.
func readCommands(in io.Reader, cmds []chan command) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		c, ok := parseCommand(sc.Text())
		if !ok {
			continue
		}
		for _, ch := range cmds {
			select {
			case ch <- c:
			default:
			}
		}
	}
}

func runSimulation(ctx context.Context, s *sim.Simulation, o runOptions, cmds <-chan command, out io.Writer, log *logrus.Entry) error {
	lastSave := time.Now()
	save := func() error {
		lastSave = time.Now()
		err := s.Save()
		if errors.Is(err, sim.ErrNoResultFile) {
			return nil
		}
		if err != nil {
			log.WithError(err).Error("saving results failed")
		}
		return err
	}
	for {
		done, err := s.Run(ctx, o.returnInterval)
		if err != nil {
			if serr := save(); serr != nil {
				return serr
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		log.Info(s.State())
		if done {
			if err := save(); err != nil {
				return err
			}
			fmt.Fprintln(out, s.Report())
			return nil
		}
		if time.Since(lastSave) > o.saveInterval {
			if err := save(); err != nil {
				return err
			}
		}
		if err := handleCommands(s, cmds, out, save); err != nil {
			return err
		}
	}
}

func handleCommands(s *sim.Simulation, cmds <-chan command, out io.Writer, save func() error) error {
	for {
		select {
		case c := <-cmds:
			switch c {
			case cmdSave:
				if err := save(); err != nil {
					return err
				}
			case cmdReport:
				fmt.Fprintln(out, s.Report())
			case cmdMore:
				s.Control(sim.More)
			case cmdLess:
				s.Control(sim.Less)
			case cmdNext:
				s.Control(sim.Next)
			}
		default:
			return nil
		}
	}
}
