package main

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/config"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/logging"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

const batches = 100

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogPretty())

	token := config.SimulatorToken()
	if token == "" {
		log.Fatal().Msg("SIM_TOKEN must hold a session token (POST /auth/login)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("simulator-" + uuid.NewString())
	client := mqtt.NewClient(opts)
	if t := client.Connect(); t.Wait() && t.Error() != nil {
		log.Fatal().Err(t.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := config.MQTTTopic()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; i < batches; i++ {
		payload, err := json.Marshal(service.MQTTPayload{Token: token, Readings: []domain.RawReading{reading()}})
		if err != nil {
			log.Fatal().Err(err).Msg("encode payload")
		}
		if t := client.Publish(topic, 1, false, payload); t.Wait() && t.Error() != nil {
			log.Error().Err(t.Error()).Msg("publish failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Int("published", i+1).Msg("simulation interrupted")
			return
		case <-ticker.C:
		}
	}
	log.Info().Int("published", batches).Msg("simulation done")
}

func reading() domain.RawReading {
	ts := domain.FormatTimestamp(time.Now())
	consumption := domain.Number(math.Round((0.02+rand.Float64()*0.1)*10000) / 10000)
	voltage := domain.Number(220 + rand.Float64()*10)
	current := domain.Number(consumption * 4.35)
	return domain.RawReading{
		Timestamp:   &ts,
		Consumption: &consumption,
		Voltage:     &voltage,
		Current:     &current,
	}
}
