// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/fes_gait/internal/actuator"
	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/pipeline"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

// printPublisher writes transitions and status changes to w instead of a
// broker.
type printPublisher struct {
	w          io.Writer
	topicTrans string
	topicStat  string
	last       telemetry.Status
}

func (p *printPublisher) Publish(topic string, v any) error {
	switch topic {
	case p.topicTrans:
		if ev, ok := v.(telemetry.TransitionEvent); ok {
			fmt.Fprintln(p.w, formatTransition(ev))
		}
	case p.topicStat:
		s, ok := v.(telemetry.Status)
		if ok && (s.Mode != p.last.Mode || s.Primed != p.last.Primed) {
			fmt.Fprintln(p.w, formatStatus(s))
		}
		p.last = s
	}
	return nil
}

// RunReplayConsole runs the pipeline on the configured source without MQTT
// or a stimulator and prints what the controller would do.
func RunReplayConsole(fast bool) error {
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

	loop := &controllerLoop{
		p:             p,
		src:           src,
		out:           actuator.NewLogOutput(),
		pub:           &printPublisher{w: os.Stdout, topicTrans: cfg.TopicTransitions, topicStat: cfg.TopicStatus},
		session:       "console",
		topicStatus:   cfg.TopicStatus,
		topicTrans:    cfg.TopicTransitions,
		topicFeatures: cfg.TopicFeatures,
		statusEveryMs: int64(cfg.StatusPublishInterval),
		now:           time.Now,
	}
	if !fast {
		ticker := time.NewTicker(time.Second / time.Duration(settings.SampleRateHz))
		defer ticker.Stop()
		loop.pace = ticker.C
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := loop.run(ctx)
	st := p.State()
	fmt.Printf("ticks=%d inferences=%d transitions=%d strides=%d avg swing=%.0fms avg stance=%.0fms\n",
		stats.Ticks, stats.Inferences, stats.Transitions, st.SwingCount, st.AvgSwingMs, st.AvgStanceMs)
	if stats.Labeled > 0 {
		fmt.Printf("mode agreement %.1f%% over %d labeled inferences\n",
			100*float64(stats.Agreed)/float64(stats.Labeled), stats.Labeled)
	}
	if cerr := closeSource(src); cerr != nil {
		log.Printf("console: %v", cerr)
	}
	return err
}
