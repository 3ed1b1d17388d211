package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProwlConfigValidation(t *testing.T) {
	_, err := NewProwlClient(ProwlConfig{})
	assert.Error(t, err)

	_, err = NewProwlClient(ProwlConfig{APIKeys: []string{"key", " "}})
	assert.Error(t, err)

	client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultProwlEndpoint, client.config.Endpoint)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
}

func TestProwlSendPostsForm(t *testing.T) {
	var (
		mu   sync.Mutex
		form url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		form = r.PostForm
		mu.Unlock()
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><prowl><success code="200" remaining="999"/></prowl>`))
	}))
	defer srv.Close()

	client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key1", "key2"}, Endpoint: srv.URL})
	require.NoError(t, err)

	err = client.Send(context.Background(), Message{
		Application: "Grafana",
		Event:       "[🔥] [critical] CPU",
		Description: "firing: CPU is hot",
		URL:         "http://grafana/alert/1",
		Priority:    PriorityEmergency,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "key1,key2", form.Get("apikey"))
	assert.Equal(t, "2", form.Get("priority"))
	assert.Equal(t, "Grafana", form.Get("application"))
	assert.Equal(t, "[🔥] [critical] CPU", form.Get("event"))
	assert.Equal(t, "firing: CPU is hot", form.Get("description"))
	assert.Equal(t, "http://grafana/alert/1", form.Get("url"))
}

func TestProwlSendOmitsEmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		_, present := r.PostForm["url"]
		assert.False(t, present)
		assert.Equal(t, "-2", r.PostForm.Get("priority"))
	}))
	defer srv.Close()

	client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key"}, Endpoint: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), Message{Event: "[✅] Disk", Priority: PriorityVeryLow}))
}

func TestProwlSendClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Kind
	}{
		{name: "bad request", code: http.StatusBadRequest, want: Permanent},
		{name: "invalid api key", code: http.StatusUnauthorized, want: Permanent},
		{name: "not approved", code: http.StatusConflict, want: Permanent},
		{name: "other client error", code: http.StatusNotFound, want: Permanent},
		{name: "rate limited", code: http.StatusNotAcceptable, want: Transient},
		{name: "internal error", code: http.StatusInternalServerError, want: Transient},
		{name: "bad gateway", code: http.StatusBadGateway, want: Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.code)
			}))
			defer srv.Close()

			client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key"}, Endpoint: srv.URL})
			require.NoError(t, err)

			err = client.Send(context.Background(), Message{Event: "e"})
			var de *DeliveryError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.want, de.Kind)
			assert.Equal(t, tt.code, de.StatusCode)
			assert.Equal(t, tt.want == Permanent, IsPermanent(err))
		})
	}
}

func TestProwlSendNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key"}, Endpoint: endpoint})
	require.NoError(t, err)

	err = client.Send(context.Background(), Message{Event: "e"})
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestProwlSendTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewProwlClient(ProwlConfig{APIKeys: []string{"key"}, Endpoint: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = client.Send(ctx, Message{Event: "e"})
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.False(t, IsPermanent(&DeliveryError{Kind: Transient}))
	assert.True(t, IsPermanent(&DeliveryError{Kind: Permanent}))
	assert.True(t, IsPermanent(errors.Join(errors.New("wrapped"), &DeliveryError{Kind: Permanent})))
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "Emergency", PriorityEmergency.String())
	assert.Equal(t, "High", PriorityHigh.String())
	assert.Equal(t, "Normal", PriorityNormal.String())
	assert.Equal(t, "Moderate", PriorityModerate.String())
	assert.Equal(t, "VeryLow", PriorityVeryLow.String())
	assert.Equal(t, "Priority(7)", Priority(7).String())
}

func TestNopAlwaysSucceeds(t *testing.T) {
	assert.NoError(t, Nop{}.Send(context.Background(), Message{}))
}
