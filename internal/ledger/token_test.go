package ledger

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuationToken_RoundTrip(t *testing.T) {
	token := EncodeContinuationToken("job-1", "item-042")
	require.NotEmpty(t, token)

	lastItemID, err := DecodeContinuationToken(token, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "item-042", lastItemID)
}

func TestContinuationToken_EmptyMeansStart(t *testing.T) {
	lastItemID, err := DecodeContinuationToken("", "job-1")
	require.NoError(t, err)
	assert.Empty(t, lastItemID)
}

func TestContinuationToken_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		token string
		jobID string
	}{
		{
			name:  "not base64",
			token: "%%%not-base64%%%",
			jobID: "job-1",
		},
		{
			name:  "not json",
			token: base64.RawURLEncoding.EncodeToString([]byte("gibberish")),
			jobID: "job-1",
		},
		{
			name:  "token from another job",
			token: EncodeContinuationToken("job-2", "item-9"),
			jobID: "job-1",
		},
		{
			name:  "empty cursor",
			token: EncodeContinuationToken("job-1", ""),
			jobID: "job-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContinuationToken(tt.token, tt.jobID)
			assert.Error(t, err)
		})
	}
}

func TestContinuationToken_OpaqueToCallers(t *testing.T) {
	// The raw key must not be readable without decoding.
	token := EncodeContinuationToken("job-1", "item-7")
	assert.NotContains(t, token, "item-7")
}
