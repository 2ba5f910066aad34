package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/api"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateLead(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/leads", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"lead-1","createdAt":"2025-03-01T12:00:00.000Z","name":"Ana"}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL + "/api/")
	receipt, err := client.CreateLead(context.Background(), ports.LeadRequest{
		Name:       "Ana",
		Email:      "ana@example.com",
		Subscribed: true,
		Answers:    domain.NewAnswerStore().Record("q1", domain.TextAnswer("Expert")),
		FunnelID:   "f1",
	})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", receipt.ID)
	assert.True(t, receipt.CreatedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, "Ana", received["name"])
	assert.Equal(t, true, received["subscribed"])
	assert.Equal(t, "f1", received["funnelId"])
	assert.Equal(t, map[string]any{"q1": "Expert"}, received["answers"])
}

func TestClient_CreateLead_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "unpublished funnel",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := api.New(srv.URL).CreateLead(context.Background(), ports.LeadRequest{FunnelID: "f1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSubmissionTransport)

			var te *domain.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "f1", te.FunnelID)
			assert.Equal(t, tt.wantStatus, te.StatusCode)
		})
	}
}

func TestClient_CreateLead_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := api.New(srv.URL).CreateLead(context.Background(), ports.LeadRequest{FunnelID: "f1"})
	assert.ErrorIs(t, err, domain.ErrSubmissionTransport)
}

func TestClient_GetPublishedFunnel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/funnels/public/obj":
			_, _ = w.Write([]byte(`{"id":"obj","title":"T","config":{"steps":[{"id":"w","type":0,"title":"Hi"}]}}`))
		case "/funnels/public/str":
			_, _ = w.Write([]byte(`{"id":"str","config":"{\"steps\":[{\"id\":\"m\",\"type\":\"message\",\"title\":\"Hey\"}]}"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	ctx := context.Background()

	f, err := client.GetPublishedFunnel(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, "T", f.Title)
	require.Equal(t, 1, f.Document.Len())
	assert.Equal(t, domain.KindWelcome, f.Document.Steps[0].Kind())

	f, err = client.GetPublishedFunnel(ctx, "str")
	require.NoError(t, err)
	assert.Equal(t, domain.KindMessage, f.Document.Steps[0].Kind())

	_, err = client.GetPublishedFunnel(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrFunnelNotFound)
}
