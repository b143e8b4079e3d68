// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/fes_gait/internal/actuator"
	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/emg"
	"github.com/relabs-tech/fes_gait/internal/pipeline"
	"github.com/relabs-tech/fes_gait/internal/sensors"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

// RunController acquires EMG, runs the pipeline on every sample, drives the
// stimulator and publishes status, transitions and features over MQTT.
func RunController() error {
	cfg := config.Get()

	settings, err := cfg.PipelineSettings()
	if err != nil {
		return err
	}
	mode, phase, err := LoadModels(cfg)
	if err != nil {
		return err
	}
	p, err := pipeline.New(settings, mode, phase)
	if err != nil {
		return err
	}

	src, err := OpenSource(cfg)
	if err != nil {
		return err
	}
	defer emg.Close(src)

	out, err := openActuator(cfg)
	if err != nil {
		return err
	}

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDController)
	if err != nil {
		return err
	}
	pub := telemetry.NewMQTT(client, true)
	defer pub.Close()

	loop := &controllerLoop{
		p:             p,
		src:           src,
		out:           out,
		pub:           pub,
		session:       telemetry.NewSessionID(),
		topicStatus:   cfg.TopicStatus,
		topicTrans:    cfg.TopicTransitions,
		topicFeatures: cfg.TopicFeatures,
		statusEveryMs: int64(cfg.StatusPublishInterval),
		now:           time.Now,
	}

	// The acquisition board paces a serial stream itself.
	if cfg.Realtime && cfg.Source != config.SourceSerial {
		ticker := time.NewTicker(time.Second / time.Duration(settings.SampleRateHz))
		defer ticker.Stop()
		loop.pace = ticker.C
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("controller: session %s, source %s, %d channels at %d Hz", loop.session, cfg.Source, settings.Channels, settings.SampleRateHz)
	stats, err := loop.run(ctx)
	log.Printf("controller: stopped after %d ticks, %d inferences, %d transitions", stats.Ticks, stats.Inferences, stats.Transitions)
	if stats.Labeled > 0 {
		log.Printf("controller: mode agreement with recorded labels %.1f%% (%d inferences)",
			100*float64(stats.Agreed)/float64(stats.Labeled), stats.Labeled)
	}
	return err
}

// LoadModels returns the configured classifiers, falling back to the
// built-in tables when no path is set.
func LoadModels(cfg *config.Config) (mode, phase classify.Model, err error) {
	mode, err = loadModel("mode", cfg.ModeModelPath, cfg.ContextWindow, classify.DefaultModeModel)
	if err != nil {
		return nil, nil, err
	}
	phase, err = loadModel("phase", cfg.PhaseModelPath, cfg.PhaseWindow, classify.DefaultPhaseModel)
	if err != nil {
		return nil, nil, err
	}
	return mode, phase, nil
}

func loadModel[M classify.Model](role, path string, windowLen int, builtin func() M) (classify.Model, error) {
	if path == "" {
		log.Printf("controller: using built-in %s model", role)
		return builtin(), nil
	}
	m, spec, err := classify.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", role, err)
	}
	// Waveform length grows with the window, so a model only applies to the
	// window length it was fit on.
	if spec.WindowLen != 0 && spec.WindowLen != windowLen {
		return nil, fmt.Errorf("%s model %s was fit on %d-sample windows, pipeline uses %d", role, path, spec.WindowLen, windowLen)
	}
	log.Printf("controller: loaded %s model %q (%s) from %s", role, spec.Name, spec.Kind, path)
	return m, nil
}

// OpenSource opens the configured acquisition back end.
func OpenSource(cfg *config.Config) (emg.Source, error) {
	switch cfg.Source {
	case config.SourceMock:
		return emg.NewMockSource(len(cfg.Channels), cfg.SampleRateHz), nil
	case config.SourceSerial:
		src, err := sensors.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate, len(cfg.Channels))
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceADC:
		src, err := sensors.NewADCSource(cfg.ADCI2CBus, cfg.ADCI2CAddr, len(cfg.Channels), cfg.ADCFullScaleMV, cfg.SampleRateHz)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceCSV:
		src, err := sensors.NewCSVSource(cfg.CSVPath, cfg.ReplayColumns(), cfg.CSVModeColumn, cfg.CSVDecimation)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func openActuator(cfg *config.Config) (actuator.Output, error) {
	if cfg.StimGPIOPin == "" {
		log.Println("controller: no stimulator pin configured, logging stimulation only")
		return actuator.NewLogOutput(), nil
	}
	g, err := actuator.NewGPIO(cfg.StimGPIOPin, cfg.StimActiveLow)
	if err != nil {
		return nil, err
	}
	return g, nil
}

type loopStats struct {
	Ticks         int
	Inferences    int
	Transitions   int
	Labeled       int // inferences on frames with a recorded mode
	Agreed        int
	PublishErrors int
}

type controllerLoop struct {
	p   *pipeline.Pipeline
	src emg.Source
	out actuator.Output
	pub telemetry.Publisher

	session       string
	topicStatus   string
	topicTrans    string
	topicFeatures string
	statusEveryMs int64

	pace <-chan time.Time // nil: run as fast as the source delivers
	now  func() time.Time

	nextStatusMs int64
	stats        loopStats
}

// run ticks until the source ends or ctx is cancelled. Stimulation is
// always switched off on the way out.
func (l *controllerLoop) run(ctx context.Context) (stats loopStats, err error) {
	defer func() {
		if offErr := l.out.Set(false); offErr != nil {
			log.Printf("controller: failed to switch stimulation off: %v", offErr)
			err = errors.Join(err, offErr)
		}
		stats = l.stats
	}()

	for {
		if l.pace != nil {
			select {
			case <-ctx.Done():
				return l.stats, nil
			case <-l.pace:
			}
		} else if ctx.Err() != nil {
			return l.stats, nil
		}

		f, err := l.src.Next()
		if errors.Is(err, io.EOF) {
			log.Println("controller: source exhausted")
			return l.stats, nil
		}
		if err != nil {
			return l.stats, fmt.Errorf("acquisition: %w", err)
		}
		if err := l.step(f); err != nil {
			return l.stats, err
		}
	}
}

func (l *controllerLoop) step(f emg.Frame) error {
	out, err := l.p.Tick(f)
	if err != nil {
		return err
	}
	l.stats.Ticks++
	if err := l.out.Set(out.Stimulating); err != nil {
		return fmt.Errorf("stimulator: %w", err)
	}

	if tr := out.Transition; tr.Changed() {
		l.stats.Transitions++
		log.Printf("controller: %s at %d ms (previous phase %d ms), mode %s",
			tr.Kind, tr.AtMs, tr.EndedPhaseMs, classify.ModeName(out.Mode))
		l.publish(l.topicTrans, telemetry.NewTransitionEvent(l.session, l.now(), tr, out))
	}

	if out.Inferred {
		l.stats.Inferences++
		if f.Mode != emg.UnknownMode {
			l.stats.Labeled++
			if classify.ClassID(f.Mode) == out.Mode {
				l.stats.Agreed++
			}
		}
		l.publish(l.topicFeatures, telemetry.NewFeatureFrame(l.session, out, l.p.ContextFeatures()))
	}

	if out.TimeMs >= l.nextStatusMs {
		l.publish(l.topicStatus, telemetry.NewStatus(l.session, l.now(), l.p.Status()))
		l.nextStatusMs = out.TimeMs + l.statusEveryMs
	}
	return nil
}

// publish never stops the control loop; stimulation does not depend on
// the broker.
func (l *controllerLoop) publish(topic string, v any) {
	if err := l.pub.Publish(topic, v); err != nil {
		l.stats.PublishErrors++
		if l.stats.PublishErrors == 1 || l.stats.PublishErrors%1000 == 0 {
			log.Printf("controller: publish error (%d so far): %v", l.stats.PublishErrors, err)
		}
	}
}
