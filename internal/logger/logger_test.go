package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(&Config{Level: "debug", Format: "json", Output: buf, ServiceName: "gemstore-test"})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf).WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetSearchContext(ctx, "ru", "exact")
	ctx = SetOrderID(ctx, "ord-9")

	CtxInfo(ctx, "searched %d rows", 3)

	line := decodeLine(t, &buf)
	assert.Equal(t, "searched 3 rows", line["message"])
	assert.Equal(t, "gemstore-test", line["service"])
	assert.Equal(t, "req-1", line[FieldRequestID])
	assert.Equal(t, "ru", line[FieldLocale])
	assert.Equal(t, "exact", line[FieldStrategy])
	assert.Equal(t, "ord-9", GetOrderID(ctx))
}

func TestEntryAddsMetricFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf).WithContext(context.Background())

	With(Fields{FieldCount: 24}).WithDuration(12).WithTotal(130).Info(ctx, "search completed")

	line := decodeLine(t, &buf)
	assert.EqualValues(t, 24, line[FieldCount])
	assert.EqualValues(t, 12, line[FieldDurationMs])
	assert.EqualValues(t, 130, line[FieldTotal])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, GetDefault(), FromContext(context.Background()))
	assert.Equal(t, "", GetSearchID(context.Background()))
}
