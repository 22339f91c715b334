package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/fedwatch/fedwatch/fedwatchd"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/pkg/server"
	"github.com/fedwatch/fedwatch/pkg/storage"
)

const (
	defHTTPPort   = "7070"
	envPrefixHTTP = "MANAGER_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel        string        `env:"MANAGER_LOG_LEVEL"          envDefault:"info"`
	InstanceID      string        `env:"MANAGER_INSTANCE_ID"`
	DataDir         string        `env:"MANAGER_DATA_DIR"           envDefault:"./data"`
	MQTTAddress     string        `env:"MANAGER_MQTT_ADDRESS"`
	MQTTQoS         uint8         `env:"MANAGER_MQTT_QOS"           envDefault:"2"`
	MQTTTimeout     time.Duration `env:"MANAGER_MQTT_TIMEOUT"       envDefault:"30s"`
	ChannelID       string        `env:"MANAGER_CHANNEL_ID"`
	ClientID        string        `env:"MANAGER_CLIENT_ID"`
	ClientKey       string        `env:"MANAGER_CLIENT_KEY"`
	DriftSchedule   string        `env:"MANAGER_DRIFT_SCHEDULE"`
	Timezone        string        `env:"MANAGER_TIMEZONE"           envDefault:"UTC"`
	DriftThreshold  float64       `env:"MANAGER_DRIFT_THRESHOLD"    envDefault:"0.5"`
	ReferenceDate   string        `env:"MANAGER_REFERENCE_DATE"     envDefault:"2024-01-14"`
	NodeID          string        `env:"MANAGER_NODE_ID"            envDefault:"hospital_01"`
	Rounds          int           `env:"MANAGER_NUM_ROUNDS"         envDefault:"10"`
	MinParticipants int           `env:"MANAGER_MIN_PARTICIPANTS"   envDefault:"2"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		log.Fatalf("failed to load HTTP server configuration : %s", err.Error())
	}

	storageConfig := storage.Config{}
	if err := env.Parse(&storageConfig); err != nil {
		log.Fatalf("failed to load storage configuration : %s", err.Error())
	}

	managerCfg := fedwatchd.ManagerConfig{
		LogLevel:      cfg.LogLevel,
		InstanceID:    cfg.InstanceID,
		DataDir:       cfg.DataDir,
		MQTTAddress:   cfg.MQTTAddress,
		MQTTQoS:       cfg.MQTTQoS,
		MQTTTimeout:   cfg.MQTTTimeout,
		ChannelID:     cfg.ChannelID,
		ClientID:      cfg.ClientID,
		ClientKey:     cfg.ClientKey,
		Server:        httpServerConfig,
		Storage:       storageConfig,
		DriftSchedule: cfg.DriftSchedule,
		Timezone:      cfg.Timezone,
		Service: manager.Config{
			DefaultRounds:          cfg.Rounds,
			DefaultMinParticipants: cfg.MinParticipants,
			DriftThreshold:         cfg.DriftThreshold,
			ReferenceDate:          cfg.ReferenceDate,
			NodeID:                 cfg.NodeID,
		},
	}

	if err := fedwatchd.StartManager(ctx, cancel, managerCfg); err != nil {
		log.Fatalf("manager exited with error: %s", err.Error())
	}
}
