package fetch

import (
	"net"
	"net/http"
	"runtime"
	"time"
)

// downloadTimeout bounds a whole download, redirects included. The
// transport's own defaults would leave a stalled transfer hanging
// indefinitely.
const downloadTimeout = 15 * time.Minute

// NewClient returns the http client used for artifact downloads.
// Redirects are not followed by the client itself; Fetch handles them
// so that partially written files can be discarded between hops.
func NewClient() *http.Client {
	return &http.Client{
		Transport: defaultTransport(),
		Timeout:   downloadTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NewAPIClient returns a client for small documents (manifests,
// release feeds). It follows redirects normally.
func NewAPIClient() *http.Client {
	return &http.Client{
		Transport: defaultTransport(),
		Timeout:   30 * time.Second,
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
	}
}
