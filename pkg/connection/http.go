package connection

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

const (
	dialTimeout   = 30 * time.Second
	dialKeepAlive = 30 * time.Second
)

// newPooledClient builds the default HTTP client: a clone of
// http.DefaultTransport whose per-host connection count is capped at maxConns.
// Callers beyond the cap wait for a free connection.
func newPooledClient(maxConns int, resolver *dnscache.Resolver) *http.Client {
	var tr *http.Transport
	if dt, ok := http.DefaultTransport.(*http.Transport); ok && dt != nil {
		tr = dt.Clone()
	} else {
		tr = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	tr.MaxConnsPerHost = maxConns
	tr.MaxIdleConnsPerHost = maxConns

	if resolver != nil {
		tr.DialContext = cachedDialContext(resolver, &net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialKeepAlive,
		})
	}

	return &http.Client{Transport: tr}
}

// cachedDialContext resolves hosts through resolver and dials the first
// address that accepts the connection.
func cachedDialContext(resolver *dnscache.Resolver, dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := resolver.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		var lastErr error
		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
		return nil, lastErr
	}
}

// dnsRefresher periodically refreshes a dnscache.Resolver until stopped.
type dnsRefresher struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startDNSRefresher(resolver *dnscache.Resolver, every time.Duration) *dnsRefresher {
	r := &dnsRefresher{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				resolver.Refresh(true)
			}
		}
	}()
	return r
}

func (r *dnsRefresher) Stop() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done
	})
}
