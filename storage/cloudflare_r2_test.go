package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPublicURL(t *testing.T) {
	cases := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "tournaments/1/standings.json", "https://cdn.example.com/tournaments/1/standings.json"},
		{"https://cdn.example.com/", "/tournaments/1/standings.json", "https://cdn.example.com/tournaments/1/standings.json"},
		{"https://cdn.example.com/league", "a.json", "https://cdn.example.com/league/a.json"},
		{"", "a.json", ""},
		{"https://cdn.example.com", "", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, joinPublicURL(c.base, c.key))
	}
}

func TestCloudflareR2UploaderConfig(t *testing.T) {
	assert.True(t, CloudflareR2UploaderConfig{}.IsEmpty())

	partial := CloudflareR2UploaderConfig{AccountID: "acc", BucketName: "b"}
	assert.False(t, partial.IsEmpty())
	assert.ErrorIs(t, partial.Validate(), ErrIncompleteR2Config)

	_, err := NewCloudflareR2Uploader(context.Background(), partial)
	assert.ErrorIs(t, err, ErrIncompleteR2Config)

	full := CloudflareR2UploaderConfig{
		AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret",
		BucketName: "league", PublicBaseURL: "https://cdn.example.com",
	}
	require.NoError(t, full.Validate())
	uploader, err := NewCloudflareR2Uploader(context.Background(), full)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.json", uploader.GetPublicURL("x.json"))
}
