// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Stream listener
	ListenHost      string
	ListenPort      int
	ControlPort     int
	OrientationPath string
	AccelPath       string
	AutoStart       bool
	ShutdownTimeout int // milliseconds

	// Orientation filter
	FilterWindow   int
	MountOffsetRad float64 // subtracted from the remapped Z axis

	// Accelerometer integration
	AccelBiasX    float64
	AccelBiasY    float64
	AccelBiasZ    float64
	SamplePeriodS float64
	DisplayScale  float64

	// Scene
	SceneObject string

	// MQTT
	MQTTEnabled         bool
	MQTTBroker          string
	MQTTClientIDListen  string
	MQTTClientIDConsole string
	TopicPose           string
	PosePublishInterval int // milliseconds

	// Serial frame source
	SerialPort     string
	SerialBaudRate int

	// Simulator
	SimInterval int // milliseconds
}

// Package-level singleton used by the cmd mains. Components never read it
// directly; they get the values they need at construction.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file overrides a key.
// The accelerometer bias values are the measured idle offsets of the
// reference phone lying flat on the desk.
func Default() *Config {
	return &Config{
		ListenHost:      "0.0.0.0",
		ListenPort:      5000,
		ControlPort:     8080,
		OrientationPath: "/orientation",
		AccelPath:       "/accelerometer",
		AutoStart:       true,
		ShutdownTimeout: 2000,

		FilterWindow:   15,
		MountOffsetRad: 1.40,

		AccelBiasX:    0.04678,
		AccelBiasY:    0.10957,
		AccelBiasZ:    9.80338,
		SamplePeriodS: 0.1063,
		DisplayScale:  10,

		SceneObject: "Cube",

		MQTTEnabled:         false,
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDListen:  "pose-bridge-listener",
		MQTTClientIDConsole: "pose-bridge-console",
		TopicPose:           "scene/pose",
		PosePublishInterval: 50,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		SimInterval: 100,
	}
}

// Load reads the configuration file and returns a Config struct. Keys
// missing from the file keep their Default value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
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
	// Stream listener
	case "LISTEN_HOST":
		c.ListenHost = value
	case "LISTEN_PORT":
		c.ListenPort, err = parsePort(key, value)
	case "CONTROL_PORT":
		c.ControlPort, err = parsePort(key, value)
	case "ORIENTATION_PATH":
		c.OrientationPath = value
	case "ACCEL_PATH":
		c.AccelPath = value
	case "AUTO_START":
		c.AutoStart, err = parseBool(key, value)
	case "SHUTDOWN_TIMEOUT_MS":
		c.ShutdownTimeout, err = parseInt(key, value)

	// Orientation filter
	case "FILTER_WINDOW":
		c.FilterWindow, err = parseInt(key, value)
	case "MOUNT_OFFSET_RAD":
		c.MountOffsetRad, err = parseFloat(key, value)

	// Accelerometer integration
	case "ACCEL_BIAS_X":
		c.AccelBiasX, err = parseFloat(key, value)
	case "ACCEL_BIAS_Y":
		c.AccelBiasY, err = parseFloat(key, value)
	case "ACCEL_BIAS_Z":
		c.AccelBiasZ, err = parseFloat(key, value)
	case "SAMPLE_PERIOD_S":
		c.SamplePeriodS, err = parseFloat(key, value)
	case "DISPLAY_SCALE":
		c.DisplayScale, err = parseFloat(key, value)

	// Scene
	case "SCENE_OBJECT":
		c.SceneObject = value

	// MQTT
	case "MQTT_ENABLED":
		c.MQTTEnabled, err = parseBool(key, value)
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_LISTENER":
		c.MQTTClientIDListen = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "POSE_PUBLISH_INTERVAL_MS":
		c.PosePublishInterval, err = parseInt(key, value)

	// Serial frame source
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)

	// Simulator
	case "SIM_INTERVAL_MS":
		c.SimInterval, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parsePort(key, value string) (int, error) {
	port, err := parseInt(key, value)
	if err != nil {
		return 0, err
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be 0-65535, got %d", key, port)
	}
	return port, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.FilterWindow < 1 {
		return fmt.Errorf("FILTER_WINDOW must be at least 1, got %d", c.FilterWindow)
	}
	if c.SamplePeriodS <= 0 {
		return fmt.Errorf("SAMPLE_PERIOD_S must be positive, got %g", c.SamplePeriodS)
	}
	if c.OrientationPath == "" || c.AccelPath == "" {
		return fmt.Errorf("ORIENTATION_PATH and ACCEL_PATH are required")
	}
	if !strings.HasPrefix(c.OrientationPath, "/") || !strings.HasPrefix(c.AccelPath, "/") {
		return fmt.Errorf("stream paths must start with '/'")
	}
	if c.OrientationPath == c.AccelPath {
		return fmt.Errorf("ORIENTATION_PATH and ACCEL_PATH must differ, both are %q", c.AccelPath)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_MS must be positive, got %d", c.ShutdownTimeout)
	}
	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required when MQTT_ENABLED is set")
		}
		if c.TopicPose == "" {
			return fmt.Errorf("TOPIC_POSE is required when MQTT_ENABLED is set")
		}
		if c.PosePublishInterval <= 0 {
			return fmt.Errorf("POSE_PUBLISH_INTERVAL_MS must be positive, got %d", c.PosePublishInterval)
		}
	}
	if c.ControlPort != 0 && c.ControlPort == c.ListenPort {
		return fmt.Errorf("CONTROL_PORT and LISTEN_PORT must differ, both are %d", c.ListenPort)
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.SimInterval <= 0 {
		return fmt.Errorf("SIM_INTERVAL_MS must be positive, got %d", c.SimInterval)
	}
	return nil
}

// ListenAddr is the host:port the stream listener binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// ShutdownDuration converts SHUTDOWN_TIMEOUT_MS to a time.Duration.
func (c *Config) ShutdownDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Millisecond
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

// InitDefault installs Default() as the global configuration when no config
// file is available.
func InitDefault() {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = Default()
	})
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
