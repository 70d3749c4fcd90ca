package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	mdnsServiceType = "_scrapconnect._tcp"
	mdnsDomain      = "local."
	defaultInstance = "ScrapConnect Sync"
	defaultHost     = "scrapconnect"
)

// startMDNS advertises the local HTTP API so presentation clients on the LAN can find it.
func (a *App) startMDNS(port int) error {
	if port <= 0 {
		return fmt.Errorf("invalid port %d", port)
	}

	a.stopMDNS()

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = defaultHost
	}

	instance := sanitizeMDNSInstance(fmt.Sprintf("%s (%s)", defaultInstance, hostname))
	hostLabel := sanitizeMDNSHost(hostname)
	hostFQDN := hostLabel
	if !strings.Contains(hostFQDN, ".") {
		hostFQDN = hostLabel + ".local"
	}

	txt := mdnsTXT(port, a.cfg.CacheBackend, a.cfg.MQTTBroker != "", hostFQDN)

	server, err := zeroconf.Register(instance, mdnsServiceType, mdnsDomain, port, txt, nil)
	if err != nil {
		return err
	}

	a.mdns = server
	a.logger.Info("mDNS advertisement started", zap.String("instance", instance), zap.Int("port", port))
	return nil
}

func (a *App) stopMDNS() {
	if a.mdns == nil {
		return
	}

	a.mdns.Shutdown()
	a.logger.Info("mDNS advertisement stopped")
	a.mdns = nil
}

func mdnsTXT(port int, backend string, notices bool, host string) []string {
	noticeFlag := "0"
	if notices {
		noticeFlag = "1"
	}
	return []string{
		fmt.Sprintf("http_port=%d", port),
		"api=/api",
		fmt.Sprintf("cache=%s", backend),
		fmt.Sprintf("notices_mqtt=%s", noticeFlag),
		"proto=v1",
		fmt.Sprintf("host=%s", host),
	}
}

func sanitizeMDNSInstance(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.NewReplacer("\n", " ", "\r", " ", ".", " ", "_", " ").Replace(cleaned)
	if cleaned == "" {
		cleaned = defaultInstance
	}
	// Labels must be <=63 characters.
	return truncateRunes(cleaned, 63)
}

func sanitizeMDNSHost(name string) string {
	cleaned := strings.TrimSpace(strings.ToLower(name))
	cleaned = strings.NewReplacer(" ", "-", "_", "-", "\n", "", "\r", "").Replace(cleaned)
	if cleaned == "" {
		cleaned = defaultHost
	}
	return truncateRunes(cleaned, 63)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
