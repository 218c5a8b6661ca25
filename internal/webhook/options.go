package webhook

import (
	"fmt"
	"net/url"
	"time"
)

// Default values
const (
	DefaultMaxBodySize     = 1048576 // 1 MB
	DefaultShutdownTimeout = 5 * time.Second
)

// Location is where the webhook server listens.
type Location struct {
	// Network is "tcp" or "unix".
	Network string
	// Address is a host:port pair for tcp, a filesystem path for unix.
	Address string
}

// TCP returns a network address location.
func TCP(addr string) Location {
	return Location{Network: "tcp", Address: addr}
}

// Unix returns a unix domain socket location.
func Unix(path string) Location {
	return Location{Network: "unix", Address: path}
}

// IsUnix reports whether the location is a unix socket path.
func (l Location) IsUnix() bool {
	return l.Network == "unix"
}

func (l Location) String() string {
	return l.Network + ":" + l.Address
}

// Options describes a webhook endpoint.
type Options struct {
	// Location is where the local server binds.
	Location Location

	// URL is the public URL Telegram delivers to. Its path is the route the
	// local server answers on.
	URL *url.URL

	// SecretToken is sent by Telegram in the X-Telegram-Bot-Api-Secret-Token
	// header. Empty means no secret; SetupWebhook generates one in that case.
	SecretToken string

	// MaxConnections limits simultaneous HTTPS connections from Telegram (1-100).
	MaxConnections int

	// AllowedUpdates lists the update kinds Telegram should deliver.
	AllowedUpdates []string

	// DropPendingUpdates discards queued updates on registration.
	DropPendingUpdates bool

	// IPAddress overrides the IP Telegram resolves the URL host to.
	IPAddress string

	// MaxBodySize is the largest accepted request body (default: 1MB).
	MaxBodySize int64

	// ShutdownTimeout bounds graceful draining of in-flight requests.
	ShutdownTimeout time.Duration
}

// NewOptions creates options for a server bound to loc that Telegram reaches
// at rawURL.
func NewOptions(loc Location, rawURL string) (Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Options{}, fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Options{}, fmt.Errorf("webhook url %q must be absolute", rawURL)
	}
	return Options{Location: loc, URL: u}, nil
}

// Path returns the route the endpoint listens on.
func (o Options) Path() string {
	if o.URL == nil || o.URL.Path == "" {
		return "/"
	}
	return o.URL.Path
}

func (o Options) withDefaults() Options {
	if o.MaxBodySize == 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	return o
}
