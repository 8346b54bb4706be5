package usage

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/rankdex/internal/ratelimit"
)

// --- Mock ---

type mockQuotaReader struct {
	usage ratelimit.Usage
}

func (m *mockQuotaReader) Snapshot() ratelimit.Usage { return m.usage }

// --- Tests ---

func TestGetReport(t *testing.T) {
	qr := &mockQuotaReader{usage: ratelimit.Usage{
		MinuteUsed:  5,
		MinuteLimit: 15,
		DayUsed:     300,
		DayLimit:    1500,
		Wait:        4 * time.Second,
	}}
	svc := New(qr)
	r := svc.GetReport(context.Background())

	if r.MinuteUsed != 5 || r.MinuteLimit != 15 {
		t.Errorf("minute = %d/%d, want 5/15", r.MinuteUsed, r.MinuteLimit)
	}
	if r.DayUsed != 300 || r.DayLimit != 1500 {
		t.Errorf("day = %d/%d, want 300/1500", r.DayUsed, r.DayLimit)
	}
	if r.WaitSeconds != 4 {
		t.Errorf("wait = %v, want 4", r.WaitSeconds)
	}
	if r.Exhausted {
		t.Error("quota should not be exhausted")
	}
}

func TestGetReport_NilQuotaReader(t *testing.T) {
	svc := New(nil)
	r := svc.GetReport(context.Background())

	if r != (Report{}) {
		t.Errorf("expected zero report without a quota reader, got %+v", r)
	}
}

func TestGetReport_MinuteExhausted(t *testing.T) {
	qr := &mockQuotaReader{usage: ratelimit.Usage{
		MinuteUsed:  15,
		MinuteLimit: 15,
		DayUsed:     100,
		DayLimit:    1500,
	}}
	svc := New(qr)
	r := svc.GetReport(context.Background())

	if !r.Exhausted {
		t.Error("quota should be exhausted when the minute window is full")
	}
}

func TestGetReport_DayExhausted(t *testing.T) {
	qr := &mockQuotaReader{usage: ratelimit.Usage{
		MinuteUsed:  1,
		MinuteLimit: 15,
		DayUsed:     1500,
		DayLimit:    1500,
	}}
	svc := New(qr)
	r := svc.GetReport(context.Background())

	if !r.Exhausted {
		t.Error("quota should be exhausted when the day budget is spent")
	}
}
