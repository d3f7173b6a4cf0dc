package sse

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BroadcasterSuite is a test suite for Broadcaster operations.
type BroadcasterSuite struct {
	suite.Suite
	broadcaster *Broadcaster
}

func (s *BroadcasterSuite) SetupTest() {
	s.broadcaster = NewBroadcaster()
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterSuite))
}

func (s *BroadcasterSuite) TestNewBroadcaster() {
	s.NotNil(s.broadcaster.clients)
	s.Equal(0, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestRegisterAndUnregister() {
	c1 := s.broadcaster.register()
	c2 := s.broadcaster.register()
	s.NotEqual(c1.id, c2.id)
	s.Equal(2, s.broadcaster.ClientCount())

	s.broadcaster.unregister(c1)
	s.Equal(1, s.broadcaster.ClientCount())

	// Unregistering twice is a no-op.
	s.broadcaster.unregister(c1)
	s.Equal(1, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestPublishReachesAllClients() {
	c1 := s.broadcaster.register()
	c2 := s.broadcaster.register()

	s.broadcaster.PublishTransition("sess-1", "welcome", "greatness_mirror")

	for _, c := range []*client{c1, c2} {
		select {
		case payload := <-c.send:
			s.Contains(string(payload), `"type":"transition"`)
			s.Contains(string(payload), `"session_id":"sess-1"`)
		default:
			s.Fail("client did not receive the event")
		}
	}
}

func (s *BroadcasterSuite) TestPublishNoClients() {
	// Must not panic or block.
	s.broadcaster.Publish(Event{Type: "cost"})
}

func (s *BroadcasterSuite) TestSlowClientIsDropped() {
	c := s.broadcaster.register()
	s.Require().Equal(1, s.broadcaster.ClientCount())

	// Fill the queue and then overflow it once.
	for i := 0; i < sendBuffer+1; i++ {
		s.broadcaster.PublishCost("sess-1", 0.01)
	}

	s.Equal(0, s.broadcaster.ClientCount())
	// The dropped client's channel is closed after draining.
	for range c.send {
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroadcaster()
	server := httptest.NewServer(b)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"type":"connected"`)

	// Wait for the client to register before publishing.
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	b.PublishTransition("sess-1", "chapter_before", "chapter_after")

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(line, "transition") {
			assert.Contains(t, line, `"to":"chapter_after"`)
			break
		}
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := NewBroadcaster()
	for i := 0; i < 4; i++ {
		c := b.register()
		// Drain so no client is dropped for being slow.
		go func() {
			for range c.send {
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.PublishCost("sess-1", float64(i)*0.001)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, b.ClientCount())
}
