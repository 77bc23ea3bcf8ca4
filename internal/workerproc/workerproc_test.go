package workerproc

import (
	"context"
	"errors"
	"testing"

	"review-backend/internal/bootstrap"
	"review-backend/internal/queue"
)

type processorStub struct {
	calls []processCall
	err   error
}

type processCall struct {
	reviewID    string
	githubToken string
}

func (p *processorStub) Process(ctx context.Context, reviewID, githubToken string) error {
	_ = ctx
	p.calls = append(p.calls, processCall{reviewID: reviewID, githubToken: githubToken})
	return p.err
}

func TestComputeMeta(t *testing.T) {
	meta := ComputeMeta("")
	if meta.BodyLen != 0 || meta.BodySHA != "" {
		t.Fatalf("unexpected empty meta: %+v", meta)
	}

	meta = ComputeMeta("hello")
	if meta.BodyLen != 5 {
		t.Fatalf("unexpected body length: %d", meta.BodyLen)
	}
	if len(meta.BodySHA) != 64 {
		t.Fatalf("expected hex sha256, got %q", meta.BodySHA)
	}
}

func TestParseMessage(t *testing.T) {
	msg, meta, err := ParseMessage(`{"reviewId":"review-1","requestId":"req-1","githubToken":"tok","version":1}`)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.ReviewID != "review-1" || msg.RequestID != "req-1" || msg.GithubToken != "tok" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if meta.BodyLen == 0 {
		t.Fatal("expected meta for a non-empty body")
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParseMessageDecodeFailure(t *testing.T) {
	_, _, err := ParseMessage("{bad json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if decodeErr.Err == nil {
		t.Fatal("expected the cause to be carried")
	}
}

func TestParseMessageMissingReviewID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1","version":1}`)
	var missingErr ErrMissingReviewID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingReviewID, got %v", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("expected request id to survive, got %q", missingErr.RequestID)
	}
}

func TestHandleMessage(t *testing.T) {
	stub := &processorStub{}
	app := &bootstrap.App{ReviewProcessor: stub}

	body := `{"reviewId":"review-1","requestId":"req-1","githubToken":"tok","version":1}`
	if err := HandleMessage(context.Background(), app, body); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected one process call, got %d", len(stub.calls))
	}
	if stub.calls[0].reviewID != "review-1" || stub.calls[0].githubToken != "tok" {
		t.Fatalf("unexpected call: %+v", stub.calls[0])
	}
}

func TestHandleMessageReusesParsedMessage(t *testing.T) {
	stub := &processorStub{}
	app := &bootstrap.App{ReviewProcessor: stub}

	msg := queue.Message{ReviewID: "review-2", RequestID: "req-2"}
	ctx := WithParsedMessage(context.Background(), msg)
	if err := HandleMessage(ctx, app, "ignored body"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(stub.calls) != 1 || stub.calls[0].reviewID != "review-2" {
		t.Fatalf("expected the context message to be used, got %+v", stub.calls)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	stub := &processorStub{err: errors.New("boom")}
	app := &bootstrap.App{ReviewProcessor: stub}

	body := `{"reviewId":"review-1","requestId":"req-1","version":1}`
	err := HandleMessage(context.Background(), app, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if procErr.ReviewID != "review-1" || procErr.RequestID != "req-1" {
		t.Fatalf("unexpected wrap: %+v", procErr)
	}
}

func TestHandleMessageUnconfigured(t *testing.T) {
	if err := HandleMessage(context.Background(), nil, "{}"); err == nil {
		t.Fatal("expected error without an app")
	}
	if err := HandleMessage(context.Background(), &bootstrap.App{}, "{}"); err == nil {
		t.Fatal("expected error without a processor")
	}
}
