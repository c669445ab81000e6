package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hrygo/threesched/internal/config"
	"github.com/hrygo/threesched/internal/version"
	"github.com/hrygo/threesched/sched"
)

var rootCmd = &cobra.Command{
	Use:   "threesched",
	Short: `A three-level task scheduler simulator: admission, memory residency, and CPU dispatch over two Processors.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			TimeSlice:  viper.GetUint32("time-slice"),
			Slots:      viper.GetUint32("slots"),
			MemorySize: uint64(viper.GetInt64("memory-size")),
			PageSize:   viper.GetUint32("page-size"),
			Live:       viper.GetBool("live"),
		}
		if v := viper.GetString("tick-interval"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrap(err, "invalid --tick-interval")
			}
			cfg.TickInterval = d
		}
		cfg.FromEnv()
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		slog.Info("threesched starting",
			"version", version.GetCurrentVersion("dev"),
			"time_slice", cfg.TimeSlice, "slots", cfg.Slots,
			"memory_size", cfg.MemorySize, "page_size", cfg.PageSize,
			"live", cfg.Live)

		s := sched.NewScheduler(cfg.TimeSlice, cfg.Slots,
			sched.WithMemory(cfg.MemorySize, cfg.PageSize),
			sched.WithEventCallback(logEvent),
		)
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, terminationSignals...)
		go func() {
			<-sigCh
			cancel()
		}()

		commands := make(chan string)
		group, gctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return readCommands(gctx, commands)
		})
		group.Go(func() error {
			return runLoop(gctx, s, cfg, commands)
		})

		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("threesched: shut down")
		return nil
	},
}

func init() {
	viper.SetDefault("time-slice", 4)
	viper.SetDefault("slots", 5)
	viper.SetDefault("memory-size", int64(sched.DefaultMemorySize))
	viper.SetDefault("page-size", sched.DefaultPageSize)

	rootCmd.Flags().Uint32("time-slice", 4, "CPU ticks granted per dispatch")
	rootCmd.Flags().Uint32("slots", 5, "max concurrent resident-Ready + Running tasks")
	rootCmd.Flags().Int64("memory-size", int64(sched.DefaultMemorySize), "bytes managed by the memory allocator")
	rootCmd.Flags().Uint32("page-size", sched.DefaultPageSize, "bytes per page frame")
	rootCmd.Flags().String("tick-interval", "", "wall-clock pacing between ticks in --live mode, e.g. 500ms")
	rootCmd.Flags().Bool("live", false, "pace ticks against --tick-interval instead of advancing only on the \"tick\" command")

	for _, name := range []string{"time-slice", "slots", "memory-size", "page-size", "tick-interval", "live"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("threesched")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func logEvent(e sched.Event) {
	slog.Info("event", "type", e.Type, "time", e.Time, "pid", e.Pid)
}

// readCommands relays stdin lines, one per command, closing the channel
// (and returning) when stdin is exhausted or ctx is cancelled.
func readCommands(ctx context.Context, out chan<- string) error {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// runLoop drives the scheduler: in --live mode it ticks on a fixed
// cadence via golang.org/x/time/rate while still accepting submissions
// from commands; otherwise ticking happens only on an explicit "tick"
// command, matching the original implementation's button-driven
// step semantics (see cmd's --live flag help).
func runLoop(ctx context.Context, s *sched.Scheduler, cfg *config.Config, commands <-chan string) error {
	var limiter *rate.Limiter
	var pace <-chan struct{}
	if cfg.Live {
		limiter = rate.NewLimiter(rate.Every(cfg.TickInterval), 1)
		tickCh := make(chan struct{})
		pace = tickCh
		go func() {
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				select {
				case tickCh <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-commands:
			if !ok {
				return nil
			}
			if err := handleCommand(s, line); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case <-pace:
			s.Tick()
			printState(s)
		}
	}
}

// handleCommand parses one line per spec §6: either the literal word
// "tick" (optionally followed by a repeat count), or a task submission
// of "request_time priority memory_size [depends_on]" — the same
// whitespace-split, 3-or-4-token grammar the original GTK front end
// used for its command entry box.
func handleCommand(s *sched.Scheduler, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	if fields[0] == "tick" {
		n := 1
		if len(fields) == 2 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return errors.Wrap(err, "invalid tick count")
			}
			n = v
		}
		for i := 0; i < n; i++ {
			s.Tick()
		}
		printState(s)
		return nil
	}

	if len(fields) != 3 && len(fields) != 4 {
		return errors.Errorf("invalid command %q: expected \"request_time priority memory_size [depends_on]\" or \"tick [n]\"", line)
	}

	requestTime, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return errors.Wrap(err, "invalid request_time")
	}
	priority, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return errors.Wrap(err, "invalid priority")
	}
	memorySize, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return errors.Wrap(err, "invalid memory_size")
	}
	var dependsOn *uint32
	if len(fields) == 4 {
		v, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return errors.Wrap(err, "invalid depends_on")
		}
		u := uint32(v)
		dependsOn = &u
	}

	pid, err := s.Submit(int32(requestTime), uint32(priority), uint32(memorySize), dependsOn)
	if err != nil {
		return err
	}
	fmt.Printf("submitted pid %d\n", pid)
	return nil
}

func printState(s *sched.Scheduler) {
	executing := s.Executing()
	fmt.Printf("time=%d proc0=%v proc1=%v\n", s.Time(), pidString(executing[0]), pidString(executing[1]))
}

func pidString(pid *uint32) string {
	if pid == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*pid), 10)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("threesched: fatal", "error", err)
		os.Exit(1)
	}
}
