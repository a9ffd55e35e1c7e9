package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}

func TestTime_LogsOutcome(t *testing.T) {
	buf := captureLog(t)
	ctx := WithRequestID(context.Background(), "r1")

	var err error
	Time(ctx, "op.ok")(&err)
	assert.Contains(t, buf.String(), "req_id=r1 op=op.ok dur=")
	assert.NotContains(t, buf.String(), "err=")

	buf.Reset()
	err = errors.New("boom")
	Time(ctx, "op.fail")(&err)
	assert.Contains(t, buf.String(), "op=op.fail")
	assert.Contains(t, buf.String(), "err=boom")

	buf.Reset()
	Time(ctx, "op.nil")(nil)
	assert.Contains(t, buf.String(), "op=op.nil")
}

func TestTime_MarksSlowOperations(t *testing.T) {
	buf := captureLog(t)
	prev := SlowThreshold
	SlowThreshold = 0
	t.Cleanup(func() { SlowThreshold = prev })

	Time(context.Background(), "op.slow")(nil)
	assert.Contains(t, buf.String(), "slow=true")

	buf.Reset()
	SlowThreshold = time.Hour
	Time(context.Background(), "op.fast")(nil)
	assert.NotContains(t, buf.String(), "slow=true")
}
