package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/auxroom/syncd/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	sessionId = configVar[string]{
		envKey:       "SYNCD_SESSION_ID",
		flagKey:      "session-id",
		defaultValue: "",
	}
	source = configVar[string]{
		envKey:       "SYNCD_SOURCE",
		flagKey:      "source",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "SYNCD_HOST",
		flagKey:      "host",
		defaultValue: "127.0.0.1",
	}
	port = configVar[int]{
		envKey:       "SYNCD_PORT",
		flagKey:      "port",
		defaultValue: 8765,
	}
	logLevel = configVar[string]{
		envKey:       "SYNCD_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	recordTTL = configVar[time.Duration]{
		envKey:       "SYNCD_RECORD_TTL",
		flagKey:      "record-ttl",
		defaultValue: 24 * time.Hour,
	}
	dropBoundaryDrags = configVar[bool]{
		envKey:       "SYNCD_DROP_BOUNDARY_DRAGS",
		flagKey:      "drop-boundary-drags",
		defaultValue: true,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(sessionId.flagKey, sessionId.defaultValue, "Shared session to attach to")
	pflag.String(source.flagKey, source.defaultValue, "Audio file to play for this session")
	pflag.String(host.flagKey, host.defaultValue, "Control API host")
	pflag.Int(port.flagKey, port.defaultValue, "Control API port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host, empty runs standalone")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(recordTTL.flagKey, recordTTL.defaultValue, "Shared record expiry")
	pflag.Bool(dropBoundaryDrags.flagKey, dropBoundaryDrags.defaultValue, "Discard slider drags of exactly 0 or 1")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(sessionId.flagKey, sessionId.envKey)
	viper.BindEnv(source.flagKey, source.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(recordTTL.flagKey, recordTTL.envKey)
	viper.BindEnv(dropBoundaryDrags.flagKey, dropBoundaryDrags.envKey)

	viper.SetDefault(sessionId.flagKey, sessionId.defaultValue)
	viper.SetDefault(source.flagKey, source.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(recordTTL.flagKey, recordTTL.defaultValue)
	viper.SetDefault(dropBoundaryDrags.flagKey, dropBoundaryDrags.defaultValue)

	config := &app.AppConfig{
		SessionId:         viper.GetString(sessionId.flagKey),
		Source:            viper.GetString(source.flagKey),
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		RecordTTL:         viper.GetDuration(recordTTL.flagKey),
		DropBoundaryDrags: viper.GetBool(dropBoundaryDrags.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting syncd with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
