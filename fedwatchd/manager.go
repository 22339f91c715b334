package fedwatchd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/manager/api"
	"github.com/fedwatch/fedwatch/manager/middleware"
	"github.com/fedwatch/fedwatch/pkg/fl"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
	"github.com/fedwatch/fedwatch/pkg/prometheus"
	"github.com/fedwatch/fedwatch/pkg/server"
	httpserver "github.com/fedwatch/fedwatch/pkg/server/http"
	"github.com/fedwatch/fedwatch/pkg/storage"
)

const svcName = "manager"

type ManagerConfig struct {
	LogLevel      string
	InstanceID    string
	DataDir       string
	MQTTAddress   string
	MQTTQoS       uint8
	MQTTTimeout   time.Duration
	ChannelID     string
	ClientID      string
	ClientKey     string
	Server        server.Config
	Storage       storage.Config
	DriftSchedule string
	Timezone      string
	Service       manager.Config
}

// StartManager runs the manager service until ctx is done or a stop signal
// arrives.
func StartManager(ctx context.Context, cancel context.CancelFunc, cfg ManagerConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	tracer := noop.NewTracerProvider().Tracer(svcName)

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		var err error
		pubsub, err = mqtt.NewPubSub(mqtt.Config{
			Address:   cfg.MQTTAddress,
			QoS:       cfg.MQTTQoS,
			ClientID:  svcName,
			Username:  cfg.ClientID,
			Password:  cfg.ClientKey,
			ChannelID: cfg.ChannelID,
			Timeout:   cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
		}
	}

	checkpoints, err := fl.NewCheckpointStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize checkpoint store: %s", err.Error())
	}

	regs, err := storage.NewRegistries(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %s", err.Error())
	}
	if regs.Closer != nil {
		defer regs.Closer.Close()
	}

	svc, err := manager.NewService(
		cfg.Service,
		regs.Participants,
		regs.Sessions,
		regs.Decisions,
		checkpoints,
		pubsub,
		cfg.ChannelID,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize manager service: %s", err.Error())
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if pubsub != nil {
		if err := svc.Subscribe(ctx); err != nil {
			return fmt.Errorf("failed to subscribe to manager channel: %s", err.Error())
		}
	}

	if cfg.DriftSchedule != "" {
		ds, err := manager.NewDriftScheduler(svc, cfg.DriftSchedule, cfg.Timezone, manager.DriftCheckSpec{
			TriggerRetraining: true,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize drift scheduler: %s", err.Error())
		}
		g.Go(func() error {
			return ds.Start(ctx)
		})
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	return nil
}

var managerCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start manager",
		Long:  `Start manager.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := ManagerConfig{
				LogLevel: "info",
				DataDir:  "./data",
				Server: server.Config{
					Port: "7070",
				},
				Storage: storage.Config{
					Type: "memory",
				},
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := StartManager(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start manager: %s", err.Error())
			}
			cancel()
		},
	},
}

func NewManagerCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "manager [start]",
		Short: "Manager management",
		Long:  `Start the fedwatch manager.`,
	}

	for i := range managerCmd {
		cmd.AddCommand(&managerCmd[i])
	}

	return &cmd
}
