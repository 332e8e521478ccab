package config

import (
	"time"

	"github.com/brianly1003/lspclient/internal/supervisor"
)

// ToCandidate converts a ServerConfig entry into a supervisor.Candidate,
// applying the fallback section's dial timeout to socket/websocket
// candidates.
func (sc ServerConfig) ToCandidate(fallback FallbackConfig) supervisor.Candidate {
	c := supervisor.Candidate{Name: sc.Name}

	switch sc.Kind {
	case "socket":
		c.Kind = supervisor.KindSocket
		c.Network = sc.Network
		c.Address = sc.Address
		c.DialDeadline = time.Duration(fallback.DialTimeoutSec) * time.Second
	case "websocket":
		c.Kind = supervisor.KindWebSocket
		c.URL = sc.URL
		c.DialDeadline = time.Duration(fallback.DialTimeoutSec) * time.Second
	case "container":
		c.Kind = supervisor.KindContainer
		c.Image = sc.Image
		c.Entrypoint = sc.Args
	default:
		c.Kind = supervisor.KindLocal
		c.Command = sc.Command
		c.Args = sc.Args
		c.Probe = sc.Probe
	}

	return c
}

// ToCandidates converts every configured server entry in order,
// preserving the list's precedence as the fallback chain's try order.
func (cfg *Config) ToCandidates() []supervisor.Candidate {
	out := make([]supervisor.Candidate, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		out = append(out, sc.ToCandidate(cfg.Fallback))
	}
	return out
}
