package ledger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// pageCursor is the backend's last-key marker in portable form. It is
// never exposed raw: external callers only ever see the encoded token, so
// the key structure stays an adapter detail.
type pageCursor struct {
	JobID      string `json:"j"`
	LastItemID string `json:"k"`
}

// EncodeContinuationToken converts the last item key of a page into an
// opaque token. The job id is baked in so a token cannot be replayed
// against a different job's listing.
func EncodeContinuationToken(jobID, lastItemID string) string {
	b, _ := json.Marshal(pageCursor{JobID: jobID, LastItemID: lastItemID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeContinuationToken recovers the last item key from a token,
// verifying it belongs to jobID. An empty token means "start from the
// beginning" and decodes to the empty marker.
func DecodeContinuationToken(token, jobID string) (string, error) {
	if token == "" {
		return "", nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("malformed continuation token: %w", err)
	}

	var cur pageCursor
	if err := json.Unmarshal(b, &cur); err != nil {
		return "", fmt.Errorf("malformed continuation token: %w", err)
	}

	if cur.JobID != jobID {
		return "", fmt.Errorf("continuation token does not belong to job %s", jobID)
	}

	if cur.LastItemID == "" {
		return "", fmt.Errorf("malformed continuation token: empty cursor")
	}

	return cur.LastItemID, nil
}
