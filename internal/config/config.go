// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/control"
	"github.com/relabs-tech/fes_gait/internal/dsp"
	"github.com/relabs-tech/fes_gait/internal/pipeline"
)

// Acquisition back ends.
const (
	SourceMock   = "mock"
	SourceSerial = "serial"
	SourceADC    = "adc"
	SourceCSV    = "csv"
)

// DisplayI2CAddr is the only address the OLED driver supports.
const DisplayI2CAddr = 0x3C

// Config holds all application configuration values.
type Config struct {
	// Pipeline
	SampleRateHz      int
	Channels          []string // muscle names, in acquisition order
	ContextWindow     int      // samples
	PhaseWindow       int      // samples
	InferenceInterval int      // ticks
	TriggerThreshold  float64
	TriggerChannel    string
	MinDwellFraction  float64
	SwingTimeoutMs    int64
	SmoothingFactor   float64
	InitialSwingMs    float64
	InitialStanceMs   float64
	StaticModes       classify.ModeSet
	BandpassCoeffs    []float64 // b0,b1,b2,a1,a2
	NotchCoeffs       []float64
	ModeModelPath     string // empty: built-in table
	PhaseModelPath    string

	// Acquisition
	Source         string
	SerialPort     string
	SerialBaudRate uint
	ADCI2CBus      string
	ADCI2CAddr     uint16
	ADCFullScaleMV int
	CSVPath        string
	CSVColumns     []string // defaults to Channels
	CSVModeColumn  string
	CSVDecimation  int
	Realtime       bool // pace ticks at the sample rate

	// Stimulator
	StimGPIOPin   string // empty: log only
	StimActiveLow bool

	// MQTT
	MQTTBroker             string
	MQTTClientIDController string
	MQTTClientIDConsole    string
	MQTTClientIDWeb        string
	MQTTClientIDDisplay    string

	// Topics
	TopicStatus      string
	TopicTransitions string
	TopicFeatures    string

	StatusPublishInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the deployed configuration. Load starts from it, so a
// config file only needs the keys it changes.
func Default() *Config {
	bp, notch := dsp.DefaultBandpass, dsp.DefaultNotch
	return &Config{
		SampleRateHz:      250,
		Channels:          []string{"TA", "MG", "RF"},
		ContextWindow:     500,
		PhaseWindow:       50,
		InferenceInterval: 25,
		TriggerThreshold:  0.02,
		TriggerChannel:    "TA",
		MinDwellFraction:  0.2,
		SwingTimeoutMs:    1200,
		SmoothingFactor:   0.9,
		InitialSwingMs:    400,
		InitialStanceMs:   600,
		StaticModes:       classify.ModeSet{classify.Sitting, classify.Standing},
		BandpassCoeffs:    []float64{bp.B0, bp.B1, bp.B2, bp.A1, bp.A2},
		NotchCoeffs:       []float64{notch.B0, notch.B1, notch.B2, notch.A1, notch.A2},

		Source:         SourceMock,
		SerialPort:     "/dev/serial0",
		SerialBaudRate: 460800,
		ADCI2CAddr:     0x48,
		ADCFullScaleMV: 2048,
		CSVDecimation:  4,
		Realtime:       true,

		MQTTBroker:             "tcp://localhost:1883",
		MQTTClientIDController: "fes-controller",
		MQTTClientIDConsole:    "fes-console-subscriber",
		MQTTClientIDWeb:        "fes-web-subscriber",
		MQTTClientIDDisplay:    "fes-display",

		TopicStatus:      "fes/status",
		TopicTransitions: "fes/transitions",
		TopicFeatures:    "fes/features",

		StatusPublishInterval: 100,
		WebServerPort:         8080,
		DisplayI2CAddr:        DisplayI2CAddr,
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Pipeline
	case "SAMPLE_RATE_HZ":
		c.SampleRateHz, err = parseInt(key, value)
	case "CHANNELS":
		c.Channels = splitList(value)
	case "CONTEXT_WINDOW":
		c.ContextWindow, err = parseInt(key, value)
	case "PHASE_WINDOW":
		c.PhaseWindow, err = parseInt(key, value)
	case "INFERENCE_INTERVAL":
		c.InferenceInterval, err = parseInt(key, value)
	case "TRIGGER_THRESHOLD":
		c.TriggerThreshold, err = parseFloat(key, value)
	case "TRIGGER_CHANNEL":
		c.TriggerChannel = value
	case "MIN_DWELL_FRACTION":
		c.MinDwellFraction, err = parseFloat(key, value)
	case "SWING_TIMEOUT_MS":
		var ms int
		ms, err = parseInt(key, value)
		c.SwingTimeoutMs = int64(ms)
	case "SMOOTHING_FACTOR":
		c.SmoothingFactor, err = parseFloat(key, value)
	case "INITIAL_SWING_MS":
		c.InitialSwingMs, err = parseFloat(key, value)
	case "INITIAL_STANCE_MS":
		c.InitialStanceMs, err = parseFloat(key, value)
	case "STATIC_MODES":
		c.StaticModes = nil
		for _, item := range splitList(value) {
			id, perr := parseInt(key, item)
			if perr != nil {
				return perr
			}
			c.StaticModes = append(c.StaticModes, classify.ClassID(id))
		}
	case "BANDPASS_COEFFS":
		c.BandpassCoeffs, err = parseCoeffs(key, value)
	case "NOTCH_COEFFS":
		c.NotchCoeffs, err = parseCoeffs(key, value)
	case "MODE_MODEL_PATH":
		c.ModeModelPath = value
	case "PHASE_MODEL_PATH":
		c.PhaseModelPath = value

	// Acquisition
	case "SOURCE":
		switch value {
		case SourceMock, SourceSerial, SourceADC, SourceCSV:
			c.Source = value
		default:
			return fmt.Errorf("invalid SOURCE %q (want mock, serial, adc or csv)", value)
		}
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		baud, perr := strconv.ParseUint(value, 10, 32)
		if perr != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, perr)
		}
		c.SerialBaudRate = uint(baud)
	case "ADC_I2C_BUS":
		c.ADCI2CBus = value
	case "ADC_I2C_ADDR":
		c.ADCI2CAddr, err = parseAddr(key, value)
	case "ADC_FULL_SCALE_MV":
		c.ADCFullScaleMV, err = parseInt(key, value)
	case "CSV_PATH":
		c.CSVPath = value
	case "CSV_COLUMNS":
		c.CSVColumns = splitList(value)
	case "CSV_MODE_COLUMN":
		c.CSVModeColumn = value
	case "CSV_DECIMATION":
		c.CSVDecimation, err = parseInt(key, value)
	case "REALTIME":
		c.Realtime, err = parseBool(key, value)

	// Stimulator
	case "STIM_GPIO_PIN":
		c.StimGPIOPin = value
	case "STIM_ACTIVE_LOW":
		c.StimActiveLow, err = parseBool(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CONTROLLER":
		c.MQTTClientIDController = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_TRANSITIONS":
		c.TopicTransitions = value
	case "TOPIC_FEATURES":
		c.TopicFeatures = value
	case "STATUS_PUBLISH_INTERVAL":
		c.StatusPublishInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Display
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseAddr(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}

func parseCoeffs(key, value string) ([]float64, error) {
	items := splitList(value)
	if len(items) != 5 {
		return nil, fmt.Errorf("invalid %s %q: want b0,b1,b2,a1,a2", key, value)
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := parseFloat(key, item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("CHANNELS is required")
	}
	if c.channelIndex(c.TriggerChannel) < 0 {
		return fmt.Errorf("TRIGGER_CHANNEL %q is not one of CHANNELS %v", c.TriggerChannel, c.Channels)
	}
	if c.Source == SourceCSV && c.CSVPath == "" {
		return fmt.Errorf("CSV_PATH is required for SOURCE=csv")
	}
	if c.Source == SourceSerial && (c.SerialPort == "" || c.SerialBaudRate == 0) {
		return fmt.Errorf("SERIAL_PORT and SERIAL_BAUD_RATE are required for SOURCE=serial")
	}
	if cols := c.ReplayColumns(); len(cols) != len(c.Channels) {
		return fmt.Errorf("CSV_COLUMNS has %d entries for %d channels", len(cols), len(c.Channels))
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	// The ssd1306 driver always talks to 0x3C.
	if c.DisplayI2CAddr != DisplayI2CAddr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x%02X, got 0x%02X", DisplayI2CAddr, c.DisplayI2CAddr)
	}
	if c.StatusPublishInterval <= 0 || c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("STATUS_PUBLISH_INTERVAL and DISPLAY_UPDATE_INTERVAL must be positive")
	}
	_, err := c.PipelineSettings()
	return err
}

func (c *Config) channelIndex(name string) int {
	return slices.Index(c.Channels, name)
}

// ReplayColumns returns the recording columns to read, one per channel.
func (c *Config) ReplayColumns() []string {
	if len(c.CSVColumns) > 0 {
		return c.CSVColumns
	}
	return c.Channels
}

// PipelineSettings converts the configuration into pipeline settings.
func (c *Config) PipelineSettings() (pipeline.Settings, error) {
	bp, err := dsp.CoeffsFromSlice(c.BandpassCoeffs)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("BANDPASS_COEFFS: %w", err)
	}
	notch, err := dsp.CoeffsFromSlice(c.NotchCoeffs)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("NOTCH_COEFFS: %w", err)
	}
	s := pipeline.Settings{
		SampleRateHz:      c.SampleRateHz,
		Channels:          len(c.Channels),
		ContextLen:        c.ContextWindow,
		PhaseLen:          c.PhaseWindow,
		InferenceInterval: c.InferenceInterval,
		TriggerChannel:    c.channelIndex(c.TriggerChannel),
		Bandpass:          bp,
		Notch:             notch,
		Control: control.Params{
			TriggerThreshold: c.TriggerThreshold,
			MinDwellFraction: c.MinDwellFraction,
			SwingTimeoutMs:   c.SwingTimeoutMs,
			Smoothing:        c.SmoothingFactor,
			InitialSwingMs:   c.InitialSwingMs,
			InitialStanceMs:  c.InitialStanceMs,
			StaticModes:      c.StaticModes,
		},
	}
	if err := s.Validate(); err != nil {
		return pipeline.Settings{}, err
	}
	return s, nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
