package model

import "testing"

func TestInstrument_Key(t *testing.T) {
	inst := Instrument{ID: "tcs", Symbol: "TCS", Exchange: "NSE"}
	if got := inst.Key(); got != "NSE:TCS" {
		t.Errorf("Key() = %q, want %q", got, "NSE:TCS")
	}
}
