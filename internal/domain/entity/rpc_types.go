package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// Protocol is the transport scheme of a Solana RPC endpoint.
type Protocol string

const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// IsWebsocket reports whether the protocol is a websocket (pubsub) transport.
func (p Protocol) IsWebsocket() bool {
	return p == ProtocolWS || p == ProtocolWSS
}

// RPCURL is a validated Solana RPC endpoint URL.
type RPCURL string

// NewRPCURL validates rawURL and returns it as an RPCURL.
func NewRPCURL(rawURL string) (RPCURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("rpc url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url format '%s': %w", rawURL, err)
	}

	switch Protocol(strings.ToLower(u.Scheme)) {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
	default:
		return "", fmt.Errorf("rpc url '%s' has unsupported scheme: '%s'", rawURL, u.Scheme)
	}

	return RPCURL(rawURL), nil
}

// Protocol returns the scheme of the URL.
func (r RPCURL) Protocol() Protocol {
	scheme, _, found := strings.Cut(string(r), "://")
	if !found {
		return ProtocolUnknown
	}
	switch p := Protocol(strings.ToLower(scheme)); p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
		return p
	default:
		return ProtocolUnknown
	}
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}

// RPCDetail is the health of one endpoint after a check.
type RPCDetail struct {
	URL       RPCURL   `json:"url"`
	Protocol  Protocol `json:"protocol"`
	IsWorking bool     `json:"isWorking"`
	LatencyMs int64    `json:"latencyMs,omitempty"`
	Error     string   `json:"error,omitempty"`
}
