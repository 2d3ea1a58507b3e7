package tuple

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := Tuple{IntField(4), StringField("hello"), IntField(-7)}

	b, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(got) != len(orig) {
		t.Fatalf("expected %d fields, got %d", len(orig), len(got))
	}
	for i := range orig {
		if !got[i].Equal(orig[i]) {
			t.Errorf("field %d: expected %+v, got %+v", i, orig[i], got[i])
		}
	}
}

func TestEncodeEmptyTuple(t *testing.T) {
	b, err := Encode(Tuple{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty tuple, got %v", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	b, _ := Encode(Tuple{IntField(1), StringField("x")})
	for cut := 0; cut < len(b); cut++ {
		if _, err := Decode(b[:cut]); err == nil {
			t.Errorf("expected error decoding truncated input of length %d", cut)
		}
	}
}

func TestStringFieldTruncation(t *testing.T) {
	long := make([]byte, StringFieldWidth+50)
	for i := range long {
		long[i] = 'a'
	}
	f := StringField(string(long))
	b, err := Encode(Tuple{f})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got[0].StrVal) != StringFieldWidth {
		t.Errorf("expected truncated string of length %d, got %d", StringFieldWidth, len(got[0].StrVal))
	}
}

func TestDecodeFieldProjection(t *testing.T) {
	orig := Tuple{IntField(1), StringField("middle"), IntField(99)}
	b, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for i, want := range orig {
		got, err := DecodeField(b, i)
		if err != nil {
			t.Fatalf("DecodeField(%d) failed: %v", i, err)
		}
		if !got.Equal(want) {
			t.Errorf("DecodeField(%d): expected %+v, got %+v", i, want, got)
		}
	}
	if _, err := DecodeField(b, len(orig)); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestFieldEqualAndLess(t *testing.T) {
	if !IntField(5).Equal(IntField(5)) {
		t.Error("expected equal int fields")
	}
	if IntField(5).Equal(IntField(6)) {
		t.Error("expected unequal int fields")
	}
	if !IntField(5).Less(IntField(6)) {
		t.Error("expected 5 < 6")
	}
	if !StringField("abc").Less(StringField("abd")) {
		t.Error("expected lexicographic ordering")
	}
}

func TestTupleProjectAndEqual(t *testing.T) {
	a := Tuple{IntField(1), IntField(2), IntField(3)}
	b := Tuple{IntField(9), IntField(2), IntField(3)}

	if !a.ProjectEqual(b, []int{1, 2}) {
		t.Error("expected projection over positions 1,2 to match")
	}
	if a.ProjectEqual(b, []int{0, 1}) {
		t.Error("expected projection over position 0 to differ")
	}

	proj := a.Project([]int{2, 0})
	if !proj[0].Equal(IntField(3)) || !proj[1].Equal(IntField(1)) {
		t.Errorf("unexpected projection result: %v", proj)
	}
}
