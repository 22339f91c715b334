package fedwatchd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	fedwatch "github.com/fedwatch/fedwatch"
	"github.com/fedwatch/fedwatch/agent"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
	"github.com/fedwatch/fedwatch/pkg/server"
	httpserver "github.com/fedwatch/fedwatch/pkg/server/http"
)

const agentSvcName = "agent"

var (
	logLevel         = "info"
	mqttAddress      = ""
	mqttQOS          = 2
	mqttTimeout      = 30 * time.Second
	channelID        = ""
	clientID         = ""
	clientKey        = ""
	agentID          = uuid.NewString()
	agentName        = ""
	nodeID           = "hospital_01"
	agentPort        = "9090"
	dataDate         = ""
	livenessInterval = 10 * time.Second
	configPath       = ""
)

type AgentConfig struct {
	LogLevel         string
	ID               string
	Name             string
	NodeID           string
	MQTTAddress      string
	MQTTQoS          uint8
	MQTTTimeout      time.Duration
	ChannelID        string
	ClientID         string
	ClientKey        string
	Server           server.Config
	DataDate         string
	LivenessInterval time.Duration
}

// StartAgent runs one participant node agent until ctx is done or a stop
// signal arrives.
func StartAgent(ctx context.Context, cancel context.CancelFunc, cfg AgentConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		var err error
		pubsub, err = mqtt.NewPubSub(mqtt.Config{
			Address:       cfg.MQTTAddress,
			QoS:           cfg.MQTTQoS,
			ClientID:      cfg.ID,
			Username:      cfg.ClientID,
			Password:      cfg.ClientKey,
			ChannelID:     cfg.ChannelID,
			ParticipantID: cfg.ID,
			Timeout:       cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
		}
	}

	endpoint := fmt.Sprintf("http://%s:%s", cfg.Server.Host, cfg.Server.Port)
	a, err := agent.New(agent.Config{
		ID:               cfg.ID,
		Name:             cfg.Name,
		NodeID:           cfg.NodeID,
		Endpoint:         endpoint,
		ChannelID:        cfg.ChannelID,
		DataDate:         cfg.DataDate,
		LivenessInterval: cfg.LivenessInterval,
	}, pubsub, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %s", err.Error())
	}

	if pubsub != nil {
		if err := a.Announce(ctx); err != nil {
			return fmt.Errorf("failed to announce agent: %s", err.Error())
		}
		g.Go(func() error {
			a.StartLivenessUpdates(ctx)

			return nil
		})
	}

	hs := httpserver.NewServer(ctx, cancel, agentSvcName, cfg.Server, a.Handler(), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, agentSvcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", agentSvcName, err))
	}

	return nil
}

var agentCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start agent",
		Long:  `Start a participant node agent.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if configPath != "" {
				fileCfg, err := fedwatch.LoadConfig(configPath)
				if err != nil {
					slog.Error("failed to load config file", slog.String("error", err.Error()))

					return
				}
				clientID = fileCfg.Agent.ClientID
				clientKey = fileCfg.Agent.ClientKey
				channelID = fileCfg.Agent.ChannelID
				if fileCfg.Agent.NodeID != "" {
					nodeID = fileCfg.Agent.NodeID
				}
			}

			cfg := AgentConfig{
				LogLevel:         logLevel,
				ID:               agentID,
				Name:             agentName,
				NodeID:           nodeID,
				MQTTAddress:      mqttAddress,
				MQTTQoS:          uint8(mqttQOS),
				MQTTTimeout:      mqttTimeout,
				ChannelID:        channelID,
				ClientID:         clientID,
				ClientKey:        clientKey,
				Server: server.Config{
					Host: "localhost",
					Port: agentPort,
				},
				DataDate:         dataDate,
				LivenessInterval: livenessInterval,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := StartAgent(ctx, cancel, cfg); err != nil {
				slog.Error("failed to start agent", slog.String("error", err.Error()))
			}
		},
	},
}

func NewAgentCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "agent [start]",
		Short: "Agent management",
		Long:  `Start a participant node agent for fedwatch.`,
	}

	for i := range agentCmd {
		cmd.AddCommand(&agentCmd[i])
	}

	cmd.PersistentFlags().StringVarP(
		&logLevel,
		"log-level",
		"l",
		logLevel,
		"Log level",
	)

	cmd.PersistentFlags().StringVarP(
		&agentID,
		"id",
		"i",
		agentID,
		"Agent ID",
	)

	cmd.PersistentFlags().StringVarP(
		&agentName,
		"name",
		"n",
		agentName,
		"Agent name",
	)

	cmd.PersistentFlags().StringVarP(
		&nodeID,
		"node-id",
		"N",
		nodeID,
		"Node whose data this agent trains on",
	)

	cmd.PersistentFlags().StringVarP(
		&agentPort,
		"port",
		"p",
		agentPort,
		"HTTP port for fit and evaluate endpoints",
	)

	cmd.PersistentFlags().StringVarP(
		&dataDate,
		"data-date",
		"d",
		dataDate,
		"Fixed training data date, YYYY-MM-DD (empty trains on today)",
	)

	cmd.PersistentFlags().DurationVarP(
		&mqttTimeout,
		"mqtt-timeout",
		"o",
		mqttTimeout,
		"MQTT Timeout",
	)

	cmd.PersistentFlags().IntVarP(
		&mqttQOS,
		"mqtt-qos",
		"q",
		mqttQOS,
		"MQTT QOS",
	)

	cmd.PersistentFlags().DurationVarP(
		&livenessInterval,
		"liveness-interval",
		"I",
		livenessInterval,
		"Liveness Interval",
	)

	cmd.PersistentFlags().StringVarP(
		&mqttAddress,
		"mqtt-address",
		"m",
		mqttAddress,
		"MQTT Address",
	)

	cmd.PersistentFlags().StringVarP(
		&channelID,
		"channel-id",
		"c",
		channelID,
		"Manager Channel ID",
	)

	cmd.PersistentFlags().StringVarP(
		&clientID,
		"client-id",
		"t",
		clientID,
		"Client ID",
	)

	cmd.PersistentFlags().StringVarP(
		&clientKey,
		"client-key",
		"k",
		clientKey,
		"Client Key",
	)

	cmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"C",
		configPath,
		"Path to a TOML config file with client credentials",
	)

	return &cmd
}
