// lumen is an offline Monte Carlo path tracer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"lumen/rendermetrics"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	googleopt "google.golang.org/api/option"
)

var cmdRoot = &cobra.Command{
	Use:           "lumen",
	Short:         "Offline Monte Carlo path tracer",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startInstrumentation()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopInstrumentation()
	},
}

var (
	cpuProfile string
	memProfile string

	monitoring           bool
	monitoringProject    string
	monitoringTraceRatio float64
	profiling            bool

	gcsConnectionPool int
)

func init() {
	cmdRoot.PersistentFlags().StringVar(&cpuProfile, "cpu-profile", "", "write cpu profile to `file`")
	cmdRoot.PersistentFlags().StringVar(&memProfile, "mem-profile", "", "write memory profile to `file`")

	cmdRoot.PersistentFlags().BoolVar(&monitoring, "monitoring", false, "Export traces and metrics to Google Cloud?")
	cmdRoot.PersistentFlags().StringVar(&monitoringProject, "monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	cmdRoot.PersistentFlags().Float64Var(&monitoringTraceRatio, "monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")
	cmdRoot.PersistentFlags().BoolVar(&profiling, "profiling", false, "Enable Cloud Profiler?")

	cmdRoot.PersistentFlags().IntVar(&gcsConnectionPool, "gcs-connection-pool", 1, "gRPC connection pool size for gs:// checkpoint stores.")
}

// shutdowns run in reverse order once the command finishes.
var shutdowns []func()

func startInstrumentation() error {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		shutdowns = append(shutdowns, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if profiling {
		cfg := profiler.Config{
			Service:        "lumen",
			ServiceVersion: "0.0.1",
		}
		if monitoringProject != "" {
			cfg.ProjectID = monitoringProject
		}
		if err := profiler.Start(cfg); err != nil {
			return fmt.Errorf("while starting Cloud Profiler: %w", err)
		}
	}

	if monitoring {
		metricsOpts := []cloudmetrics.Option{}
		traceOpts := []cloudtrace.Option{}
		if monitoringProject != "" {
			metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(monitoringProject))
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(monitoringTraceRatio)))
		if err != nil {
			return fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
		}
		shutdowns = append(shutdowns, traceShutdown)

		pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
		if err != nil {
			return fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
		}
		shutdowns = append(shutdowns, func() {
			if err := pusher.Stop(context.Background()); err != nil {
				glog.Errorf("Failed to stop metrics pusher: %v", err)
			}
		})

		// Render progress is recorded through opencensus views.
		if err := rendermetrics.Register(); err != nil {
			return fmt.Errorf("while registering render views: %w", err)
		}
		sdOpts := stackdriver.Options{
			MetricPrefix:      "lumen",
			ReportingInterval: 60 * time.Second,
		}
		if monitoringProject != "" {
			sdOpts.ProjectID = monitoringProject
		}
		exporter, err := stackdriver.NewExporter(sdOpts)
		if err != nil {
			return fmt.Errorf("while creating opencensus Stackdriver exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return fmt.Errorf("while starting opencensus metrics exporter: %w", err)
		}
		shutdowns = append(shutdowns, func() {
			exporter.Flush()
			exporter.StopMetricsExporter()
		})
	}

	return nil
}

func stopInstrumentation() error {
	for i := len(shutdowns) - 1; i >= 0; i-- {
		shutdowns[i]()
	}
	shutdowns = nil

	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return fmt.Errorf("while creating memory profile: %w", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("while writing memory profile: %w", err)
		}
	}

	return nil
}

func gcsOptions() []googleopt.ClientOption {
	return []googleopt.ClientOption{googleopt.WithGRPCConnectionPool(gcsConnectionPool)}
}

// signalContext is cancelled on SIGINT or SIGTERM.  An interrupted render
// loses the chunk in flight; chunks already saved with --checkpoint-every stay
// in the store.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	// glog complains unless the go flag set has been parsed; cobra parses the
	// flags itself.
	flag.CommandLine.Parse([]string{})

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	cmdRoot.AddCommand(cmdRender, cmdDevelop, cmdCheckpoints, cmdBVHStats, cmdScenes)

	if err := cmdRoot.Execute(); err != nil {
		stopInstrumentation()
		glog.Flush()
		glog.Exitf("Error: %v", err)
	}
}
