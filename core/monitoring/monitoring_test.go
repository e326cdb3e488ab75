package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestCaptureUsesInstalledMonitor(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("solver crashed"), map[string]string{"module": "scheduler"})
	if len(mon.errs) != 1 || mon.tags[0]["module"] != "scheduler" {
		t.Fatalf("unexpected captures: %v %v", mon.errs, mon.tags)
	}

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("panic not re-raised: %v", r)
			}
		}()
		defer Recover()
		panic("boom")
	}()
	if len(mon.errs) != 2 || mon.errs[1].Error() != "panic: boom" {
		t.Fatalf("panic not captured: %v", mon.errs)
	}
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	if _, ok := Current().(NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", Current())
	}
}
