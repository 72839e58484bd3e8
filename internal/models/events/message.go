package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Message 是事件落到消息总线上的形态：JSON 载荷、字符串属性与排序键。
type Message struct {
	Data        []byte
	Attributes  map[string]string
	OrderingKey string
}

// Encode 编码事件。同一视频的事件共享 OrderingKey，订阅端按版本号去重。
// ctx 中存在有效 span 时附带 trace_id。
func Encode(ctx context.Context, event *DomainEvent) (Message, error) {
	if event == nil {
		return Message{}, errors.New("encode event: nil event")
	}
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode event %s: %w", event.Kind, err)
	}

	key := strconv.FormatInt(event.AggregateID, 10)
	attrs := map[string]string{
		"event_id":       event.EventID.String(),
		"event_type":     event.Kind.String(),
		"aggregate_type": event.AggregateType,
		"aggregate_id":   key,
		"version":        strconv.FormatInt(event.Version, 10),
		"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339),
		"schema_version": SchemaVersionV1,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		attrs["trace_id"] = sc.TraceID().String()
	}
	return Message{Data: data, Attributes: attrs, OrderingKey: AggregateTypeVideo + "/" + key}, nil
}

// VersionFromTime 以 UTC 微秒作为聚合版本号。
func VersionFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}
