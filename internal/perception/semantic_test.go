package perception

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

// mockClient implements LLMClient for tests.
type mockClient struct {
	completeFunc func(ctx context.Context, system, user string) (string, error)
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, system, user)
	}
	return "[]", nil
}

func (m *mockClient) Model() string { return "mock" }

func TestSemanticDetector_ParsesDetections(t *testing.T) {
	text := "The senator clearly wants to bury the report."
	idx := strings.Index(text, "clearly wants")
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return fmt.Sprintf("```json\n[{\"type_id\": \"E.1.1\", \"span_start\": %d, \"span_end\": %d, \"text\": \"clearly wants\", \"confidence\": 0.85, \"rationale\": \"asserts motive as fact\"}]\n```", idx, idx+len("clearly wants")), nil
		},
	}

	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 6000)
	result, err := d.Detect(context.Background(), text, types.SegmentBody)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(result.Detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(result.Detections))
	}
	det := result.Detections[0]
	if det.TypeID != "E.1.1" {
		t.Errorf("type = %s, want E.1.1", det.TypeID)
	}
	if !det.ValidSpan(text) {
		t.Errorf("span invariant violated: [%d,%d) %q", det.SpanStart, det.SpanEnd, det.Text)
	}
	if det.Source != types.SourceSemantic {
		t.Errorf("source = %s", det.Source)
	}
}

func TestSemanticDetector_ReanchorsDriftedOffsets(t *testing.T) {
	text := "Observers say the vote amounts to false balance on the panel."
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			// Offsets are wrong; text is right.
			return `[{"type_id": "F.1.1", "span_start": 3, "span_end": 9, "text": "false balance on the panel", "confidence": 0.7}]`, nil
		},
	}

	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 6000)
	result, err := d.Detect(context.Background(), text, types.SegmentBody)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(result.Detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(result.Detections))
	}
	if !result.Detections[0].ValidSpan(text) {
		t.Error("re-anchored span does not satisfy invariant")
	}
}

func TestSemanticDetector_DropsOffWhitelist(t *testing.T) {
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return `[{"type_id": "B.2.2", "span_start": 0, "span_end": 5, "text": "Slams", "confidence": 0.9}]`, nil
		},
	}
	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 6000)
	result, err := d.Detect(context.Background(), "Slams all around.", types.SegmentBody)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(result.Detections) != 0 {
		t.Errorf("off-whitelist type should be dropped, got %d detections", len(result.Detections))
	}
}

func TestSemanticDetector_TransportFailureIsEmpty(t *testing.T) {
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", fmt.Errorf("connection refused")
		},
	}
	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 6000)
	result, err := d.Detect(context.Background(), "Some text.", types.SegmentBody)
	if err != nil {
		t.Fatalf("transport failure must not propagate, got: %v", err)
	}
	if len(result.Detections) != 0 || !result.Failed {
		t.Errorf("expected empty failed result, got %+v", result)
	}
}

func TestSemanticDetector_ParseFailureIsEmpty(t *testing.T) {
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return "I found nothing of note in this text.", nil
		},
	}
	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 6000)
	result, err := d.Detect(context.Background(), "Some text.", types.SegmentBody)
	if err != nil {
		t.Fatalf("parse failure must not propagate, got: %v", err)
	}
	if len(result.Detections) != 0 {
		t.Errorf("expected empty result, got %d", len(result.Detections))
	}
}

func TestSemanticDetector_TruncatesToBudget(t *testing.T) {
	var gotLen int
	client := &mockClient{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			gotLen = len(user)
			return "[]", nil
		},
	}
	d := NewSemanticDetector(client, taxonomy.NewRegistry(), 100)
	long := strings.Repeat("manipulative text ", 200)
	if _, err := d.Detect(context.Background(), long, types.SegmentBody); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	// Prompt includes the whitelist preamble; the text portion is capped.
	if gotLen > 1500 {
		t.Errorf("prompt appears untruncated: %d bytes", gotLen)
	}
}
