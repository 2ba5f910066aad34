package share_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/adapters/share"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	doc := testutils.SampleDocument()

	link, err := share.EncodeURL("https://quiz.example.com/play?utm=x", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://quiz.example.com/play?"))
	assert.Contains(t, link, "utm=x")

	decoded, err := share.DecodeURL(link)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, decoded); diff != "" {
		t.Errorf("document changed through the link (-want +got):\n%s", diff)
	}

	id, err := share.FunnelID(link)
	require.NoError(t, err)
	assert.Empty(t, id, "a shared document carries no remote funnel id")
}

func TestDecodeURL_Fragment(t *testing.T) {
	config := url.QueryEscape(`{"steps":[{"id":"w","type":0,"title":"Hi"}]}`)

	for _, link := range []string{
		"https://x.test/#config=" + config,
		"https://x.test/#/play?config=" + config,
	} {
		doc, err := share.DecodeURL(link)
		require.NoError(t, err, link)
		assert.Equal(t, 1, doc.Len())
	}
}

func TestDecodeURL_Errors(t *testing.T) {
	_, err := share.DecodeURL("https://x.test/play")
	assert.ErrorIs(t, err, share.ErrNoConfig)

	_, err = share.DecodeURL("https://x.test/?config=" + url.QueryEscape("{not json"))
	assert.Error(t, err)
}

func TestFunnelID(t *testing.T) {
	tests := map[string]string{
		"https://x.test/?funnelId=abc":     "abc",
		"https://x.test/?id=def":           "def",
		"https://x.test/#funnelId=ghi":     "ghi",
		"https://x.test/?id=a&funnelId=b":  "b",
		"https://x.test/":                  "",
		"https://x.test/#/quiz?funnelId=z": "z",
	}
	for link, want := range tests {
		got, err := share.FunnelID(link)
		require.NoError(t, err)
		assert.Equal(t, want, got, link)
	}
}
