package store

import (
	"encoding/json"
	"testing"
)

func TestRecord_JSONKeepsColumnOrder(t *testing.T) {
	rec := RecordOf("zeta", 1, "alpha", "a", "mid", nil)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"zeta":1,"alpha":"a","mid":null}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	cols := back.Columns()
	if len(cols) != 3 || cols[0] != "zeta" || cols[1] != "alpha" || cols[2] != "mid" {
		t.Errorf("got columns %v", cols)
	}
}

func TestRecord_SetKeepsPosition(t *testing.T) {
	rec := RecordOf("a", 1, "b", 2)
	rec.Set("a", 3)

	if cols := rec.Columns(); cols[0] != "a" || cols[1] != "b" {
		t.Errorf("got columns %v", cols)
	}
	if v, _ := rec.Get("a"); v != 3 {
		t.Errorf("got a=%v, want 3", v)
	}
}

func TestRecord_Accessors(t *testing.T) {
	rec := RecordOf("id", int64(7), "user_id", "42", "note", nil)

	if id, ok := rec.Int64("id"); !ok || id != 7 {
		t.Errorf("Int64(id) = %d, %v", id, ok)
	}
	if n, ok := rec.Int64("user_id"); !ok || n != 42 {
		t.Errorf("Int64(user_id) = %d, %v", n, ok)
	}
	if _, ok := rec.Int64("note"); ok {
		t.Error("Int64 on NULL should report false")
	}
	if s := rec.String("missing"); s != "" {
		t.Errorf("String(missing) = %q", s)
	}

	var zero Record
	if !zero.IsZero() {
		t.Error("zero record should report IsZero")
	}
	if data, _ := json.Marshal(zero); string(data) != "{}" {
		t.Errorf("zero record marshals to %s", data)
	}
}
