package config

import "errors"

const (
	MainConfigFileName = "mcmonitor.json"

	ProtocolPing  = "ping"
	ProtocolQuery = "query"
	ProtocolRCON  = "rcon"
)

var (
	ErrNoConfigFiles   = errors.New("no config files found")
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrUnknownFormat   = errors.New("unknown format mode")
)

type VerifyFunc func(cfgs []TargetConfig) error

type MonitorConfigReader func() (MonitorConfig, error)

type TargetConfigReader interface {
	Read() ([]TargetConfig, error)
}
