package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadsense/internal/calibration"
	"roadsense/internal/config"
	"roadsense/internal/motion"
	"roadsense/internal/store"
)

func main() {
	var (
		configPath   string
		baselineMode bool
	)
	flag.StringVar(&configPath, "config", "./roadsense.yaml", "Path to YAML config")
	flag.BoolVar(&baselineMode, "baseline", false, "Run the initial leveling calibration and save the record")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, closeRepo, err := buildRepository(cfg.Store)
	if err != nil {
		log.Fatalf("repository init failed: %v", err)
	}
	defer closeRepo()

	src, err := buildSource(cfg.Source)
	if err != nil {
		log.Fatalf("source init failed: %v", err)
	}
	defer src.Stop(context.Background())

	if baselineMode {
		if err := runBaseline(ctx, cfg, src, repo, os.Stdout); err != nil {
			log.Fatalf("baseline calibration failed: %v", err)
		}
		return
	}

	ok, err := runSession(ctx, cfg, src, repo, os.Stdout)
	if err != nil {
		log.Fatalf("session calibration failed: %v", err)
	}
	if !ok {
		os.Exit(1)
	}
}

func runBaseline(ctx context.Context, cfg config.Config, src motion.Source, repo calibration.RecordRepository, out io.Writer) error {
	rec, err := calibration.PerformBaselineCalibration(ctx, src, calibration.BaselineParams{
		CollectDuration: cfg.Calibration.BaselineDuration,
		WatchdogGrace:   cfg.Calibration.WatchdogGrace,
	})
	if err != nil {
		return err
	}

	// A failed save is reported, not fatal: the record is still printed
	// so the run is not wasted.
	if err := repo.Save(ctx, rec); err != nil {
		log.Printf("baseline save failed: %v", err)
	}
	return printJSON(out, rec)
}

func runSession(ctx context.Context, cfg config.Config, src motion.Source, repo calibration.RecordRepository, out io.Writer) (bool, error) {
	rec, err := repo.Load(ctx)
	if err != nil {
		return false, err
	}
	if calibration.RecalibrationRequired(rec, time.Now()) {
		log.Printf("baseline record missing or older than %s; run with -baseline first", calibration.MaxCalibrationAge)
	}

	res := calibration.PerformPreRecordingCalibration(ctx, repo, src, calibration.Params{
		CollectDuration: cfg.Calibration.CollectDuration,
		WatchdogGrace:   cfg.Calibration.WatchdogGrace,
	})
	if err := printJSON(out, res); err != nil {
		return false, err
	}
	return res.IsCalibrationSuccessful, nil
}

func buildSource(cfg config.SourceConfig) (motion.Source, error) {
	switch cfg.Kind {
	case "sim":
		return motion.NewSimSource(motion.SimConfig{
			Period:     cfg.Sim.Period,
			AccelNoise: cfg.Sim.AccelNoise,
			GyroNoise:  cfg.Sim.GyroNoise,
			GyroZBias:  cfg.Sim.GyroZBias,
		}), nil
	case "mqtt":
		return motion.NewMQTTSource(motion.MQTTConfig{
			Broker:         cfg.MQTT.Broker,
			Topic:          cfg.MQTT.Topic,
			ClientID:       cfg.MQTT.ClientID,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}), nil
	case "websocket":
		return motion.NewWSSource(motion.WSConfig{URL: cfg.WS.URL}), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func buildRepository(cfg config.StoreConfig) (calibration.RecordRepository, func(), error) {
	switch cfg.Kind {
	case "file":
		return store.NewFileRepository(cfg.Path), func() {}, nil
	case "sqlite":
		repo, err := store.OpenSQLiteRepository(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
