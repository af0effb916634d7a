package integration

import (
	"context"
	"fmt"
	"log"

	"github.com/grandcat/zeroconf"
)

const (
	// MDNSService is the DNS-SD service type push sensors browse for
	MDNSService = "_soilism._tcp"
	mdnsDomain  = "local."
)

// MDNSAnnouncer advertises the HTTP ingest endpoint on the local network
type MDNSAnnouncer struct {
	instance string
	port     int
	text     []string
}

// NewMDNSAnnouncer creates an announcer for the given instance name and port
func NewMDNSAnnouncer(instance string, port int, ingestPath string) *MDNSAnnouncer {
	if instance == "" {
		instance = "soilism"
	}
	return &MDNSAnnouncer{
		instance: instance,
		port:     port,
		text:     []string{"path=" + ingestPath, "format=json"},
	}
}

// TXT returns the TXT records published with the service
func (a *MDNSAnnouncer) TXT() []string {
	return a.text
}

// Run registers the service and keeps it published until ctx is cancelled
func (a *MDNSAnnouncer) Run(ctx context.Context) error {
	server, err := zeroconf.Register(a.instance, MDNSService, mdnsDomain, a.port, a.text, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	log.Printf("Announcing %s.%s%s on port %d", a.instance, MDNSService, mdnsDomain, a.port)

	<-ctx.Done()
	server.Shutdown()
	log.Printf("mDNS announcement withdrawn")
	return nil
}
