package export

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// buildRequest converts finished SDK spans into an OTLP export request,
// grouping by resource and instrumentation scope.
func buildRequest(spans []sdktrace.ReadOnlySpan) *coltracepb.ExportTraceServiceRequest {
	type scopeGroup struct {
		scope *commonpb.InstrumentationScope
		spans []*tracepb.Span
	}
	type resourceGroup struct {
		resource   *resource.Resource
		scopeOrder []string
		scopes     map[string]*scopeGroup
	}

	var resOrder []attribute.Distinct
	resGroups := make(map[attribute.Distinct]*resourceGroup)

	for _, s := range spans {
		res := s.Resource()
		resKey := res.Equivalent()
		rg, ok := resGroups[resKey]
		if !ok {
			rg = &resourceGroup{
				resource: res,
				scopes:   make(map[string]*scopeGroup),
			}
			resGroups[resKey] = rg
			resOrder = append(resOrder, resKey)
		}

		scope := s.InstrumentationScope()
		scopeKey := scope.Name + "\x00" + scope.Version
		sg, ok := rg.scopes[scopeKey]
		if !ok {
			sg = &scopeGroup{
				scope: &commonpb.InstrumentationScope{
					Name:    scope.Name,
					Version: scope.Version,
				},
			}
			rg.scopes[scopeKey] = sg
			rg.scopeOrder = append(rg.scopeOrder, scopeKey)
		}

		sg.spans = append(sg.spans, convertSpan(s))
	}

	req := &coltracepb.ExportTraceServiceRequest{}
	for _, resKey := range resOrder {
		rg := resGroups[resKey]
		rs := &tracepb.ResourceSpans{
			Resource: &resourcepb.Resource{
				Attributes: convertAttributes(rg.resource.Attributes()),
			},
		}
		for _, scopeKey := range rg.scopeOrder {
			sg := rg.scopes[scopeKey]
			rs.ScopeSpans = append(rs.ScopeSpans, &tracepb.ScopeSpans{
				Scope: sg.scope,
				Spans: sg.spans,
			})
		}
		req.ResourceSpans = append(req.ResourceSpans, rs)
	}
	return req
}

// convertSpan converts a single finished span.
func convertSpan(s sdktrace.ReadOnlySpan) *tracepb.Span {
	sc := s.SpanContext()
	traceID := sc.TraceID()
	spanID := sc.SpanID()

	out := &tracepb.Span{
		TraceId:           traceID[:],
		SpanId:            spanID[:],
		Name:              s.Name(),
		Kind:              convertKind(s.SpanKind()),
		StartTimeUnixNano: uint64(s.StartTime().UnixNano()),
		EndTimeUnixNano:   uint64(s.EndTime().UnixNano()),
		Attributes:        convertAttributes(s.Attributes()),
		Status:            convertStatus(s.Status()),
	}

	if parent := s.Parent(); parent.SpanID().IsValid() {
		parentID := parent.SpanID()
		out.ParentSpanId = parentID[:]
	}

	for _, ev := range s.Events() {
		out.Events = append(out.Events, &tracepb.Span_Event{
			TimeUnixNano: uint64(ev.Time.UnixNano()),
			Name:         ev.Name,
			Attributes:   convertAttributes(ev.Attributes),
		})
	}

	return out
}

// convertKind maps the SDK span kind onto the wire enum.
func convertKind(kind trace.SpanKind) tracepb.Span_SpanKind {
	switch kind {
	case trace.SpanKindServer:
		return tracepb.Span_SPAN_KIND_SERVER
	case trace.SpanKindClient:
		return tracepb.Span_SPAN_KIND_CLIENT
	case trace.SpanKindProducer:
		return tracepb.Span_SPAN_KIND_PRODUCER
	case trace.SpanKindConsumer:
		return tracepb.Span_SPAN_KIND_CONSUMER
	default:
		return tracepb.Span_SPAN_KIND_INTERNAL
	}
}

// convertStatus maps the SDK status onto the wire status.
func convertStatus(status sdktrace.Status) *tracepb.Status {
	out := &tracepb.Status{Message: status.Description}
	switch status.Code {
	case codes.Ok:
		out.Code = tracepb.Status_STATUS_CODE_OK
	case codes.Error:
		out.Code = tracepb.Status_STATUS_CODE_ERROR
	default:
		out.Code = tracepb.Status_STATUS_CODE_UNSET
	}
	return out
}

// convertAttributes converts SDK attributes to wire key-values.
func convertAttributes(attrs []attribute.KeyValue) []*commonpb.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]*commonpb.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		out = append(out, &commonpb.KeyValue{
			Key:   string(kv.Key),
			Value: convertValue(kv.Value),
		})
	}
	return out
}

// convertValue converts a single attribute value.
func convertValue(v attribute.Value) *commonpb.AnyValue {
	switch v.Type() {
	case attribute.BOOL:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.AsBool()}}
	case attribute.INT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.AsInt64()}}
	case attribute.FLOAT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.AsFloat64()}}
	case attribute.STRING:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.AsString()}}
	case attribute.BOOLSLICE:
		return sliceValue(v.AsBoolSlice(), func(b bool) *commonpb.AnyValue {
			return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: b}}
		})
	case attribute.INT64SLICE:
		return sliceValue(v.AsInt64Slice(), func(i int64) *commonpb.AnyValue {
			return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: i}}
		})
	case attribute.FLOAT64SLICE:
		return sliceValue(v.AsFloat64Slice(), func(f float64) *commonpb.AnyValue {
			return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: f}}
		})
	case attribute.STRINGSLICE:
		return sliceValue(v.AsStringSlice(), func(s string) *commonpb.AnyValue {
			return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: s}}
		})
	default:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.Emit()}}
	}
}

// sliceValue wraps a homogeneous slice into an OTLP array value.
func sliceValue[T any](items []T, convert func(T) *commonpb.AnyValue) *commonpb.AnyValue {
	values := make([]*commonpb.AnyValue, 0, len(items))
	for _, item := range items {
		values = append(values, convert(item))
	}
	return &commonpb.AnyValue{
		Value: &commonpb.AnyValue_ArrayValue{
			ArrayValue: &commonpb.ArrayValue{Values: values},
		},
	}
}
