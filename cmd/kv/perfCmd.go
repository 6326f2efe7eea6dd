package kv

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rKV servers",
		Long:    "Runs concurrent workloads (set, get, has, has-not, delete, mixed) against a server and prints latency percentiles and throughput per workload",
		Args:    cobra.NoArgs,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix   = "__perf"
	perfValueSize   = 64
	perfNumThreads  = 10
	perfKeySpread   = 100
	perfRequests    = 1000
	perfSkip        = make([]string, 0)
	perfPercentiles = []float64{0.5, 0.95, 0.99}
)

// workload is one perf test. prepare runs before the clock starts, op is run
// perfRequests times by every thread.
type workload struct {
	name    string
	prepare func(keys []string) error
	op      func(thread, i int, keys []string) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Workloads to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent clients"))
	key = "requests"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Requests sent by every client per workload"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 64, util.WrapString("Size of the values written by the set workloads (in bytes, a SET request must fit into one frame)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfValueSize = viper.GetInt("value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfRequests = viper.GetInt("requests")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfNumThreads <= 0 || perfRequests <= 0 || perfKeySpread <= 0 {
		return fmt.Errorf("threads, requests and keys must be positive")
	}
	// SET <key> <value>
	longestKey := len(perfKey("set", perfKeySpread-1))
	if perfValueSize < 0 || len("SET ")+longestKey+1+perfValueSize > codec.MaxBodyLen {
		return fmt.Errorf("value size %d does not fit into a %d byte request", perfValueSize, codec.MaxBodyLen)
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for rKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Requests per thread: %d, Value size: %d B\n", perfNumThreads, perfRequests, perfValueSize)
	fmt.Println()

	fmt.Println("starting tests...")

	value := make([]byte, perfValueSize)
	for i := range value {
		value[i] = 'a' + byte(i%26)
	}

	setAll := func(keys []string) error {
		for _, k := range keys {
			if err := rpcStore.Set(k, value); err != nil {
				return err
			}
		}
		return nil
	}

	workloads := []workload{
		{
			name: "set",
			op: func(thread, i int, keys []string) error {
				return rpcStore.Set(keys[(thread+i)%len(keys)], value)
			},
		},
		{
			name:    "get",
			prepare: setAll,
			op: func(thread, i int, keys []string) error {
				_, _, err := rpcStore.Get(keys[(thread+i)%len(keys)])
				return err
			},
		},
		{
			name:    "has",
			prepare: setAll,
			op: func(thread, i int, keys []string) error {
				_, err := rpcStore.Has(keys[(thread+i)%len(keys)])
				return err
			},
		},
		{
			name: "has-not",
			op: func(thread, i int, keys []string) error {
				_, err := rpcStore.Has(keys[(thread+i)%len(keys)])
				return err
			},
		},
		{
			name:    "delete",
			prepare: setAll,
			op: func(thread, i int, keys []string) error {
				_, err := rpcStore.Delete(keys[(thread+i)%len(keys)])
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll,
			op: func(thread, i int, keys []string) error {
				key := keys[(thread+i)%len(keys)]
				var err error
				switch i % 4 {
				case 0: // set
					err = rpcStore.Set(key, value)
				case 1: // get
					_, _, err = rpcStore.Get(key)
				case 2: // delete
					_, err = rpcStore.Delete(key)
				case 3: // has
					_, err = rpcStore.Has(key)
				}
				return err
			},
		},
	}

	registry := metrics.NewRegistry()
	var ran []string

	for _, w := range workloads {
		if shouldSkip(w.name) {
			fmt.Printf("%-10sskipped\n", w.name)
			continue
		}
		elapsed, err := runWorkload(w, registry)
		if err != nil {
			return fmt.Errorf("%s: %w", w.name, err)
		}
		ran = append(ran, w.name)
		printResult(w.name, registry, elapsed)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, ran, registry, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runWorkload runs w with perfNumThreads concurrent clients and records every
// request in the "<name>.latency" timer and "<name>.throughput" meter of registry
func runWorkload(w workload, registry metrics.Registry) (time.Duration, error) {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = perfKey(w.name, i)
	}

	if w.prepare != nil {
		if err := w.prepare(keys); err != nil {
			return 0, fmt.Errorf("prepare: %w", err)
		}
	}

	// cleanup
	defer func() {
		for _, k := range keys {
			if _, err := rpcStore.Delete(k); err != nil {
				log.Printf("(%s) - error deleting key: %v\n", w.name, err)
			}
		}
	}()

	timer := metrics.GetOrRegisterTimer(w.name+".latency", registry)
	failures := metrics.GetOrRegisterCounter(w.name+".errors", registry)
	throughput := metrics.GetOrRegisterMeter(w.name+".throughput", registry)

	var wg sync.WaitGroup
	start := time.Now()
	for thread := 0; thread < perfNumThreads; thread++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < perfRequests; i++ {
				opStart := time.Now()
				err := w.op(thread, i, keys)
				timer.UpdateSince(opStart)
				throughput.Mark(1)
				if err != nil {
					failures.Inc(1)
					log.Printf("(%s) - request failed: %v\n", w.name, err)
				}
			}
		}(thread)
	}
	wg.Wait()

	return time.Since(start), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

func perfKey(test string, i int) string {
	return fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test, i)
}

// printResult prints the result of a workload in a formatted way
func printResult(test string, registry metrics.Registry, elapsed time.Duration) {
	timer := metrics.GetOrRegisterTimer(test+".latency", registry).Snapshot()
	failures := metrics.GetOrRegisterCounter(test+".errors", registry).Snapshot()
	throughput := metrics.GetOrRegisterMeter(test+".throughput", registry).Snapshot()
	ps := timer.Percentiles(perfPercentiles)

	fmt.Printf("%-10s%8d ops in %-12s %10.0f ops/sec  mean %-10s p50 %-10s p95 %-10s p99 %-10s errors %d\n",
		test,
		timer.Count(),
		elapsed.Round(time.Millisecond),
		throughput.RateMean(),
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		failures.Count(),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, tests []string, registry metrics.Registry, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Ops", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Threads", "RequestsPerThread", "ValueSize", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, test := range tests {
		timer := metrics.GetOrRegisterTimer(test+".latency", registry).Snapshot()
		failures := metrics.GetOrRegisterCounter(test+".errors", registry).Snapshot()
		throughput := metrics.GetOrRegisterMeter(test+".throughput", registry).Snapshot()
		ps := timer.Percentiles(perfPercentiles)

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			strconv.FormatInt(failures.Count(), 10),
			fmt.Sprintf("%.0f", throughput.RateMean()),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(timer.Max(), 10),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfRequests),
			strconv.Itoa(perfValueSize),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
