package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/formatter"
)

// ClientConfig holds the settings shared by the rcon, query and ping clients.
type ClientConfig struct {
	Host              string `json:"host" yaml:"host"`
	Port              int    `json:"port" yaml:"port"`
	Timeout           string `json:"timeout" yaml:"timeout"`
	RequestID         int32  `json:"requestID" yaml:"requestID"`
	Format            string `json:"format" yaml:"format"`
	ProtocolVersion   int    `json:"protocolVersion" yaml:"protocolVersion"`
	SendProxyProtocol bool   `json:"sendProxyProtocol" yaml:"sendProxyProtocol"`
	Password          string `json:"password" yaml:"password"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:    "localhost",
		Timeout: core.DefaultTimeout.String(),
		Format:  formatter.Replace.String(),
	}
}

// TimeoutDuration parses Timeout, an empty value means core.DefaultTimeout.
func (cfg ClientConfig) TimeoutDuration() (time.Duration, error) {
	if cfg.Timeout == "" {
		return core.DefaultTimeout, nil
	}
	return time.ParseDuration(cfg.Timeout)
}

func (cfg ClientConfig) FormatMode() (formatter.Mode, error) {
	return ParseFormat(cfg.Format)
}

// ParseFormat accepts the names of the format modes, an empty name means Replace.
func ParseFormat(name string) (formatter.Mode, error) {
	switch strings.ToLower(name) {
	case "", "replace":
		return formatter.Replace, nil
	case "raw":
		return formatter.Raw, nil
	case "remove", "clean":
		return formatter.Remove, nil
	}
	return formatter.Raw, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// TargetConfig is one server watched by the monitor.
type TargetConfig struct {
	FilePath string `json:"-" yaml:"-"`
	Name     string `json:"name" yaml:"name"`
	// Protocol is one of ProtocolPing, ProtocolQuery or ProtocolRCON.
	Protocol string `json:"protocol" yaml:"protocol"`
	// Command is run on rcon targets, list when empty.
	Command  string `json:"command" yaml:"command"`
	Interval string `json:"interval" yaml:"interval"`

	ClientConfig `yaml:",inline"`
}

func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		Protocol:     ProtocolPing,
		ClientConfig: DefaultClientConfig(),
	}
}

type MonitorConfig struct {
	MetricsBind   string         `json:"metricsBind" yaml:"metricsBind"`
	Interval      string         `json:"interval" yaml:"interval"`
	Workers       int            `json:"workers" yaml:"workers"`
	PidFile       string         `json:"pidFile" yaml:"pidFile"`
	EnableHotSwap bool           `json:"enableHotSwap" yaml:"enableHotSwap"`
	TargetDir     string         `json:"targetDir" yaml:"targetDir"`
	Log           core.LogConfig `json:"log" yaml:"log"`
	Targets       []TargetConfig `json:"targets" yaml:"targets"`
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		MetricsBind:   ":9100",
		Interval:      "30s",
		Workers:       4,
		PidFile:       "/var/run/mcmonitor.pid",
		EnableHotSwap: true,
		Log:           core.DefaultLogConfig(),
	}
}

// Target is a TargetConfig with every value parsed, ready for the monitor.
type Target struct {
	Name              string
	Protocol          string
	Command           string
	Host              string
	Port              int
	Password          string
	RequestID         int32
	ProtocolVersion   int
	SendProxyProtocol bool
	Timeout           time.Duration
	Interval          time.Duration
	Format            formatter.Mode
}

// NewTarget parses cfg, interval is used when the target does not set its own.
func NewTarget(cfg TargetConfig, interval time.Duration) (Target, error) {
	target := Target{
		Name:              cfg.Name,
		Protocol:          strings.ToLower(cfg.Protocol),
		Command:           cfg.Command,
		Host:              cfg.Host,
		Port:              cfg.Port,
		Password:          cfg.Password,
		RequestID:         cfg.RequestID,
		ProtocolVersion:   cfg.ProtocolVersion,
		SendProxyProtocol: cfg.SendProxyProtocol,
		Interval:          interval,
	}
	switch target.Protocol {
	case ProtocolPing, ProtocolQuery:
	case ProtocolRCON:
		if target.Command == "" {
			target.Command = "list"
		}
	default:
		return Target{}, fmt.Errorf("target %q: %w: %q", cfg.Name, ErrUnknownProtocol, cfg.Protocol)
	}

	var err error
	if target.Timeout, err = cfg.TimeoutDuration(); err != nil {
		return Target{}, fmt.Errorf("target %q timeout: %w", cfg.Name, err)
	}
	if cfg.Interval != "" {
		if target.Interval, err = time.ParseDuration(cfg.Interval); err != nil {
			return Target{}, fmt.Errorf("target %q interval: %w", cfg.Name, err)
		}
	}
	if target.Format, err = cfg.FormatMode(); err != nil {
		return Target{}, fmt.Errorf("target %q: %w", cfg.Name, err)
	}
	return target, nil
}

// NewTargets parses every target of cfgs with the monitor's interval as default.
func NewTargets(monitorCfg MonitorConfig, cfgs []TargetConfig) ([]Target, error) {
	interval, err := time.ParseDuration(monitorCfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("monitor interval: %w", err)
	}
	targets := make([]Target, 0, len(cfgs))
	for _, cfg := range cfgs {
		target, err := NewTarget(cfg, interval)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}
