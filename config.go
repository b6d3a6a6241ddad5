package mld6

import "time"

// Config holds the compile-time-tunable parameters of the listener core.
// Every field has a protocol-mandated or recommended default supplied by
// DefaultConfig; most deployments only need to override MaxGroups and
// MaxSources to match device memory.
type Config struct {
	// MaxGroups bounds the number of concurrent groups tracked per
	// interface (default 16).
	MaxGroups int
	// MaxSources bounds sources per source list (default 16). With 0, no
	// source list has room for any address: StateChange refuses every
	// non-empty filter with OutOfCapacityError, so only INCLUDE{} and
	// EXCLUDE{} can be requested; a non-empty filter is not converted to
	// EXCLUDE{} automatically.
	MaxSources int
	// RobustnessVariable is the number of retransmissions used to survive
	// packet loss (default 2).
	RobustnessVariable int
	// QueryInterval is the assumed interval between router General
	// Queries, used only to size OlderVersionQuerierPresentTimeout
	// (default 125s).
	QueryInterval time.Duration
	// QueryResponseInterval is the assumed maximum router query response
	// window, used only to size OlderVersionQuerierPresentTimeout
	// (default 10s).
	QueryResponseInterval time.Duration
	// UnsolicitedReportInterval paces State-Change Report retransmission
	// (default 1s).
	UnsolicitedReportInterval time.Duration
	// TickPeriod is the recommended (not enforced) interval between Tick
	// calls (default 100ms).
	TickPeriod time.Duration
	// MaxReportPacketSize ceilings a single v2 Report packet's payload
	// (default 1232, a common IPv6 path-MTU-safe UDP/ICMP payload size:
	// 1280 minimum IPv6 MTU less a 40-byte IPv6 header and 8 bytes of
	// hop-by-hop router-alert option).
	MaxReportPacketSize int

	// OnReportSent, if set, is invoked after every successfully
	// transmitted report (test/observability hook).
	OnReportSent func(dest string, payloadLen int)
}

// DefaultConfig returns the protocol-recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxGroups:                 16,
		MaxSources:                16,
		RobustnessVariable:        2,
		QueryInterval:             125 * time.Second,
		QueryResponseInterval:     10 * time.Second,
		UnsolicitedReportInterval: 1 * time.Second,
		TickPeriod:                100 * time.Millisecond,
		MaxReportPacketSize:       1232,
	}
}

// OlderVersionQuerierPresentTimeout computes the duration the compatibility
// arbiter holds V1 mode after the last v1 Query:
// (RobustnessVariable * QueryInterval) + QueryResponseInterval.
func (c Config) OlderVersionQuerierPresentTimeout() time.Duration {
	return time.Duration(c.RobustnessVariable)*c.QueryInterval + c.QueryResponseInterval
}

// Option configures a Config, applied in order by NewInterface (functional
// options pattern).
type Option func(*Config)

// WithMaxGroups overrides MaxGroups.
func WithMaxGroups(n int) Option { return func(c *Config) { c.MaxGroups = n } }

// WithMaxSources overrides MaxSources.
func WithMaxSources(n int) Option { return func(c *Config) { c.MaxSources = n } }

// WithRobustnessVariable overrides RobustnessVariable.
func WithRobustnessVariable(n int) Option { return func(c *Config) { c.RobustnessVariable = n } }

// WithUnsolicitedReportInterval overrides UnsolicitedReportInterval.
func WithUnsolicitedReportInterval(d time.Duration) Option {
	return func(c *Config) { c.UnsolicitedReportInterval = d }
}

// WithMaxReportPacketSize overrides MaxReportPacketSize.
func WithMaxReportPacketSize(n int) Option { return func(c *Config) { c.MaxReportPacketSize = n } }

// WithQueryTimings overrides QueryInterval and QueryResponseInterval
// together, since both only ever matter combined via
// OlderVersionQuerierPresentTimeout.
func WithQueryTimings(queryInterval, queryResponseInterval time.Duration) Option {
	return func(c *Config) {
		c.QueryInterval = queryInterval
		c.QueryResponseInterval = queryResponseInterval
	}
}

// WithOnReportSent installs a test/observability hook invoked after every
// transmitted report.
func WithOnReportSent(fn func(dest string, payloadLen int)) Option {
	return func(c *Config) { c.OnReportSent = fn }
}
