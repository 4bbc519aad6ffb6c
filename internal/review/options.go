package review

import "github.com/velstra/garrison/pkg/logger"

// Option configures a Gate.
type Option func(*Gate)

// WithNotifier wires best-effort verdict delivery to the member.
func WithNotifier(n Notifier) Option {
	return func(g *Gate) {
		g.notifier = n
	}
}

// WithLogger sets a custom logger for the gate.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}
