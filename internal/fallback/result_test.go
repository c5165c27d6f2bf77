package fallback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	reason := errors.New("boom")

	ok := OK("v", SourceLive)
	assert.Equal(t, StatusOK, ok.Status)
	assert.Equal(t, SourceLive, ok.Source)
	assert.NoError(t, ok.Reason)

	d := Degraded(3, SourceMock, reason)
	assert.Equal(t, StatusDegraded, d.Status)
	assert.Equal(t, 3, d.Value)
	assert.ErrorIs(t, d.Reason, reason)

	f := Failed[[]string](reason)
	assert.Equal(t, StatusFailed, f.Status)
	assert.Nil(t, f.Value)
	assert.ErrorIs(t, f.Reason, reason)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "degraded", StatusDegraded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
