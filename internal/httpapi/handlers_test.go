package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arghyadipchak/mssngr/internal/broker"
	"github.com/arghyadipchak/mssngr/internal/config"
	"github.com/arghyadipchak/mssngr/internal/forward"
	"github.com/arghyadipchak/mssngr/internal/metrics"
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/arghyadipchak/mssngr/internal/wslisten"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stack struct {
	server *Server
	srv    *httptest.Server
}

func newStack(t *testing.T, topics []string, peers []config.Peer) *stack {
	t.Helper()

	registry := topicreg.NewRegistry(topics)
	fwd := forward.Build(peers)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := zap.NewNop()

	b := broker.New(registry, m, log, 16, 2)
	ctx, cancel := context.WithCancel(context.Background())
	b.Run(ctx)

	l := wslisten.New(registry, m, log, 16)
	go l.Run(ctx)

	s := New(registry, fwd, b, l, m, reg, log)
	httpSrv := httptest.NewServer(s.Router())

	t.Cleanup(func() {
		httpSrv.Close()
		cancel()
		b.Stop()
	})

	return &stack{server: s, srv: httpSrv}
}

func TestHandleIndexReturns200(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)
	resp, err := http.Get(st.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlePublishUnknownTopicReturns502(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)
	resp, err := http.Post(st.srv.URL+"/publish/unknown", "application/json", strings.NewReader(`{"content":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandlePublishForwardedTopicReturns307(t *testing.T) {
	st := newStack(t, []string{"chat"}, []config.Peer{{ID: "n2", Addr: "http://n2/", Topics: []string{"news"}}})

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Post(st.srv.URL+"/publish/news", "application/json", strings.NewReader(`{"content":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, "http://n2/publish/news", resp.Header.Get("Location"))
}

func TestHandlePublishLocalTopicReturnsIDAndFetchFindsIt(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)

	resp, err := http.Post(st.srv.URL+"/publish/chat", "application/json", bytes.NewReader([]byte(`{"content":"hi","priority":"high"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var published publishResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&published))

	var events []topicreg.MsgEvent
	require.Eventually(t, func() bool {
		fetchResp, err := http.Get(st.srv.URL + "/fetch/chat?id=" + published.ID.String())
		if err != nil {
			return false
		}
		defer fetchResp.Body.Close()
		if fetchResp.StatusCode != http.StatusOK {
			return false
		}
		events = nil
		_ = json.NewDecoder(fetchResp.Body).Decode(&events)
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, "hi", events[0].Content)
	require.Equal(t, topicreg.PriorityHigh, events[0].Priority)
}

func TestHandleFetchInvalidIDReturns400(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)
	resp, err := http.Get(st.srv.URL + "/fetch/chat?id=not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleFetchUnknownIDOmitted(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)
	missing := "00000000-0000-0000-0000-000000000000"
	resp, err := http.Get(st.srv.URL + "/fetch/chat?id=" + missing)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []topicreg.MsgEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Empty(t, events)
}

func TestHandleSubscribeUpgradeReceivesPush(t *testing.T) {
	st := newStack(t, []string{"chat"}, nil)

	wsURL := "ws" + strings.TrimPrefix(st.srv.URL, "http") + "/subscribe/chat?priority=low"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the registration channel + listener a moment to add the reader
	// and the subscriber table a moment to see the new entry.
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Post(st.srv.URL+"/publish/chat", "application/json", strings.NewReader(`{"content":"hi"}`))
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(data), "hi")
}

func TestHandleSubscribeForwardedTopicReturns307(t *testing.T) {
	st := newStack(t, []string{"chat"}, []config.Peer{{ID: "n2", Addr: "http://n2/", Topics: []string{"news"}}})

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(st.srv.URL + "/subscribe/news")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, "http://n2/subscribe/news", resp.Header.Get("Location"))
}
