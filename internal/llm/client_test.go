package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/config"
)

type fakeModel struct {
	failures int
	calls    int
	content  string
	block    bool
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func testConfig() *config.Config {
	return &config.Config{
		LLMMaxRetries: 2,
		LLMRetryDelay: time.Millisecond,
		LLMTimeout:    50 * time.Millisecond,
	}
}

func TestGenerateSucceeds(t *testing.T) {
	fake := &fakeModel{content: "测试回复"}
	client := NewClient(fake, testConfig())

	got, err := client.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, GenerateOptions{Temperature: 0.3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "测试回复" {
		t.Fatalf("content = %q", got)
	}
	if fake.calls != 1 {
		t.Fatalf("calls = %d, want 1", fake.calls)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	fake := &fakeModel{failures: 2, content: "ok"}
	client := NewClient(fake, testConfig())

	got, err := client.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "ok" {
		t.Fatalf("content = %q", got)
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3", fake.calls)
	}
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	fake := &fakeModel{failures: 10}
	client := NewClient(fake, testConfig())

	_, err := client.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, GenerateOptions{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3 (1 + 2 retries)", fake.calls)
	}
}

func TestGenerateTimeoutIsRetryable(t *testing.T) {
	fake := &fakeModel{block: true}
	client := NewClient(fake, testConfig())

	start := time.Now()
	_, err := client.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, GenerateOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	// Three attempts of 50ms each plus two 1ms delays.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("returned too early (%v), timeouts were not retried", elapsed)
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3", fake.calls)
	}
}

func TestGenerateStopsWhenCallerCancels(t *testing.T) {
	fake := &fakeModel{failures: 10}
	cfg := testConfig()
	cfg.LLMRetryDelay = time.Second
	client := NewClient(fake, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Generate(ctx, []*schema.Message{schema.UserMessage("hi")}, GenerateOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
