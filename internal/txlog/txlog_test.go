package txlog

import (
	"testing"
	"time"

	"papertradev1/internal/model"
)

func tx(id, instrumentID string, side model.Side) model.Transaction {
	return model.Transaction{
		ID:           id,
		Side:         side,
		InstrumentID: instrumentID,
		Symbol:       "X",
		Qty:          1,
		Price:        100_00,
		Total:        100_00,
		Timestamp:    time.Now(),
	}
}

func TestLog_AllMostRecentFirst(t *testing.T) {
	l := New()
	l.Record(tx("t1", "tcs", model.SideBuy))
	l.Record(tx("t2", "infy", model.SideBuy))
	l.Record(tx("t3", "tcs", model.SideSell))

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("All() = %d, want 3", len(all))
	}
	if all[0].ID != "t3" || all[2].ID != "t1" {
		t.Errorf("order wrong: %s ... %s", all[0].ID, all[2].ID)
	}
}

func TestLog_ByInstrument(t *testing.T) {
	l := New()
	l.Record(tx("t1", "tcs", model.SideBuy))
	l.Record(tx("t2", "infy", model.SideBuy))
	l.Record(tx("t3", "tcs", model.SideSell))

	got := l.ByInstrument("tcs")
	if len(got) != 2 {
		t.Fatalf("ByInstrument = %d, want 2", len(got))
	}
	if got[0].ID != "t3" || got[1].ID != "t1" {
		t.Errorf("filtered order wrong: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestLog_ResetAndRestore(t *testing.T) {
	l := New()
	l.Record(tx("t1", "tcs", model.SideBuy))
	saved := l.Chronological()

	l.Reset()
	if l.Len() != 0 {
		t.Fatalf("Len after Reset = %d", l.Len())
	}

	l.Restore(saved)
	if l.Len() != 1 || l.All()[0].ID != "t1" {
		t.Error("restore did not bring the entry back")
	}
}
