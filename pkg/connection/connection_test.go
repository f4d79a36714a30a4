package connection

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/neo4jrest/neo4j.go/internal/fakeneo"
)

type ConnectionTestSuite struct {
	suite.Suite
	server *fakeneo.Server
}

func TestConnectionTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectionTestSuite))
}

func (s *ConnectionTestSuite) SetupTest() {
	s.server = fakeneo.NewServer("127.0.0.1:0")
	s.Require().NoError(s.server.Start())

	s.server.AddStubResponse(fakeneo.StubResponse{
		Matcher:  fakeneo.Match(http.MethodGet, "/db/neo4j/slow"),
		Body:     map[string]any{"slow": true},
		Failures: []fakeneo.FailureConfig{{Type: fakeneo.FailureRequestDelay, Probability: 1, MinDelay: 300 * time.Millisecond}},
	})
	s.server.AddStubResponse(fakeneo.StubResponse{
		Matcher:  fakeneo.Match(http.MethodGet, "/db/neo4j/busy"),
		Body:     map[string]any{"busy": true},
		Failures: []fakeneo.FailureConfig{{Type: fakeneo.FailureRequestDelay, Probability: 1, MinDelay: 40 * time.Millisecond}},
	})
	s.server.AddStubResponse(fakeneo.StubResponse{
		Matcher:  fakeneo.Match(http.MethodGet, "/db/neo4j/drop"),
		Failures: []fakeneo.FailureConfig{{Type: fakeneo.FailureDropConnection, Probability: 1}},
	})
	s.server.AddStubResponse(fakeneo.SimpleStubResponse(http.MethodGet, "/db/neo4j/fast", map[string]any{"fast": true}))
}

func (s *ConnectionTestSuite) TearDownTest() {
	s.Require().NoError(s.server.Stop())
}

func (s *ConnectionTestSuite) newTransport(mutate ...func(*Config)) *Transport {
	u, err := url.Parse(s.server.URL())
	s.Require().NoError(err)
	cfg := NewConfig(u)
	for _, m := range mutate {
		m(cfg)
	}
	tr, err := New(cfg)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = tr.Close() })
	return tr
}

func (s *ConnectionTestSuite) TestRequestTimeout() {
	tr := s.newTransport()

	_, err := tr.PerformRequest(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "slow",
		Timeout: TimeoutOf(50 * time.Millisecond),
	})
	var terr *TimeoutError
	s.Require().ErrorAs(err, &terr)
	s.Equal(50*time.Millisecond, terr.Timeout)
}

func (s *ConnectionTestSuite) TestTransportDefaultTimeout() {
	tr := s.newTransport(func(c *Config) { c.Timeout = TimeoutOf(50 * time.Millisecond) })

	_, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "slow"})
	var terr *TimeoutError
	s.Require().ErrorAs(err, &terr)
}

func (s *ConnectionTestSuite) TestExplicitNoTimeoutOverridesDefault() {
	tr := s.newTransport(func(c *Config) { c.Timeout = TimeoutOf(50 * time.Millisecond) })

	resp, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "slow", Timeout: NoTimeout()})
	s.Require().NoError(err)
	s.Equal(map[string]any{"slow": true}, resp.Body)
}

func (s *ConnectionTestSuite) TestLibraryDefaultWaitsIndefinitely() {
	tr := s.newTransport()
	s.True(tr.Timeout().IsDefault())

	resp, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "slow"})
	s.Require().NoError(err)
	s.Equal(map[string]any{"slow": true}, resp.Body)
}

func (s *ConnectionTestSuite) TestCallerDeadlineIsTimeoutError() {
	tr := s.newTransport()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := tr.PerformRequest(ctx, Request{Method: http.MethodGet, Path: "slow"})
	var terr *TimeoutError
	s.Require().ErrorAs(err, &terr)
}

func (s *ConnectionTestSuite) TestTimeoutReleasesConnection() {
	tr := s.newTransport(func(c *Config) { c.MaxConns = 1 })

	_, err := tr.PerformRequest(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "slow",
		Timeout: TimeoutOf(50 * time.Millisecond),
	})
	var terr *TimeoutError
	s.Require().ErrorAs(err, &terr)

	// With a single-connection pool the next call only gets through if the
	// timed out connection went back to the pool or was torn down.
	resp, err := tr.PerformRequest(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "fast",
		Timeout: TimeoutOf(time.Second),
	})
	s.Require().NoError(err)
	s.Equal(map[string]any{"fast": true}, resp.Body)

	s.Eventually(func() bool { return s.server.Abandoned() == 1 }, time.Second, 10*time.Millisecond)
}

func (s *ConnectionTestSuite) TestDroppedConnectionIsTransportError() {
	tr := s.newTransport()

	_, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "drop"})
	var terr *TransportError
	s.Require().ErrorAs(err, &terr)
}

func (s *ConnectionTestSuite) TestConnectionRefusedIsTransportError() {
	s.Require().NoError(s.server.Stop())
	tr := s.newTransport()

	_, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "fast", Timeout: TimeoutOf(time.Second)})
	var terr *TransportError
	s.Require().ErrorAs(err, &terr)
}

func (s *ConnectionTestSuite) TestPoolBoundsConcurrency() {
	tr := s.newTransport(func(c *Config) { c.MaxConns = 2 })

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := tr.PerformRequest(ctx, Request{Method: http.MethodGet, Path: "busy"})
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.LessOrEqual(s.server.MaxConcurrent(), int64(2))
	s.Len(s.server.Requests(), 8)
}

func (s *ConnectionTestSuite) TestCancellationIsIsolated() {
	tr := s.newTransport()

	g := new(errgroup.Group)
	var timedOut, completed error
	g.Go(func() error {
		_, timedOut = tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "slow", Timeout: TimeoutOf(30 * time.Millisecond)})
		return nil
	})
	g.Go(func() error {
		_, completed = tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "slow"})
		return nil
	})
	s.Require().NoError(g.Wait())

	var terr *TimeoutError
	s.ErrorAs(timedOut, &terr)
	s.NoError(completed)
}

func (s *ConnectionTestSuite) TestDNSCache() {
	tr := s.newTransport(func(c *Config) {
		c.URL.Host = strings.Replace(c.URL.Host, "127.0.0.1", "localhost", 1)
		c.UseDNSCache = true
	})

	for i := 0; i < 2; i++ {
		resp, err := tr.PerformRequest(context.Background(), Request{Method: http.MethodGet, Path: "fast"})
		s.Require().NoError(err)
		s.Equal(map[string]any{"fast": true}, resp.Body)
	}
	s.Require().NotNil(tr.refresher)

	s.Require().NoError(tr.Close())
	s.Nil(tr.refresher)
}

func (s *ConnectionTestSuite) TestLazyClientCreation() {
	tr := s.newTransport()

	s.Nil(tr.httpClient)
	client, err := tr.HTTPClient()
	s.Require().NoError(err)
	s.NotNil(client)

	again, err := tr.HTTPClient()
	s.Require().NoError(err)
	s.Same(client, again)
}
