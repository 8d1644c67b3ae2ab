package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/ping"
	"github.com/OwenCochell/mctools/query"
	"github.com/OwenCochell/mctools/rcon"
)

// NewProber creates the prober matching the protocol of target.
func NewProber(target config.Target, logger zerolog.Logger) (Prober, error) {
	transportOpts := []conn.Option{
		conn.WithProxyProtocol(target.SendProxyProtocol),
	}
	if target.Timeout > 0 {
		transportOpts = append(transportOpts, conn.WithTimeout(target.Timeout))
	}

	switch target.Protocol {
	case config.ProtocolPing:
		client := ping.NewClient(target.Host, target.Port,
			ping.WithTransportOptions(transportOpts...),
			ping.WithProtocolOptions(ping.WithProtocolVersion(target.ProtocolVersion)),
			ping.WithLogger(logger),
			ping.WithFormatMode(target.Format),
		)
		return &pingProber{client: client}, nil
	case config.ProtocolQuery:
		client := query.NewClient(target.Host, target.Port,
			query.WithTransportOptions(transportOpts...),
			query.WithLogger(logger),
			query.WithFormatMode(target.Format),
		)
		return &queryProber{client: client}, nil
	case config.ProtocolRCON:
		protoOpts := []rcon.ProtocolOption{}
		if target.RequestID != 0 {
			protoOpts = append(protoOpts, rcon.WithRequestID(target.RequestID))
		}
		client := rcon.NewClient(target.Host, target.Port,
			rcon.WithTransportOptions(transportOpts...),
			rcon.WithProtocolOptions(protoOpts...),
			rcon.WithLogger(logger),
			rcon.WithFormatMode(target.Format),
		)
		return &rconProber{client: client, password: target.Password, command: target.Command}, nil
	}
	return nil, fmt.Errorf("target %q: %w: %q", target.Name, config.ErrUnknownProtocol, target.Protocol)
}

type pingProber struct {
	client *ping.Client
}

func (p *pingProber) Probe(ctx context.Context) (Result, error) {
	status, err := p.client.Stats(ctx)
	if err != nil {
		return Result{}, err
	}
	names := make([]string, 0, len(status.Players.Sample))
	for _, sample := range status.Players.Sample {
		names = append(names, sample.Name)
	}
	return Result{
		Online:  status.Players.Online,
		Max:     status.Players.Max,
		Players: names,
		Version: status.Version.Name,
		MOTD:    status.Description.String(),
		Latency: status.Latency,
	}, nil
}

func (p *pingProber) Close() error {
	return p.client.Stop()
}

type queryProber struct {
	client *query.Client
}

func (p *queryProber) Probe(ctx context.Context) (Result, error) {
	start := time.Now()
	stats, err := p.client.FullStats(ctx)
	if err != nil {
		return Result{}, err
	}
	online, max := stats.PlayerCounts()
	return Result{
		Online:  online,
		Max:     max,
		Players: stats.Players,
		Version: stats.Get("version"),
		MOTD:    stats.MOTD(),
		Latency: time.Since(start),
	}, nil
}

func (p *queryProber) Close() error {
	return p.client.Stop()
}

// rconProber logs in once and keeps the connection open between probes. The "list"
// command is parsed into player counts.
type rconProber struct {
	client   *rcon.Client
	password string
	command  string
}

func (p *rconProber) Probe(ctx context.Context) (Result, error) {
	if !p.client.IsAuthenticated() {
		if err := p.client.Authenticate(ctx, p.password); err != nil {
			p.client.Stop()
			return Result{}, err
		}
	}

	start := time.Now()
	if p.command == "list" {
		players, err := p.client.Players(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Online:  players.Online,
			Max:     players.Max,
			Players: players.Names,
			Latency: time.Since(start),
			Output:  players.String(),
		}, nil
	}

	out, err := p.client.Command(ctx, p.command)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, Latency: time.Since(start)}, nil
}

func (p *rconProber) Close() error {
	return p.client.Stop()
}
