package mdindex

import "testing"

func TestParseCreateIndexKD(t *testing.T) {
	cmd, err := ParseCreateIndex("createIndex KD kdxy people (x, y)")
	if err != nil {
		t.Fatalf("ParseCreateIndex failed: %v", err)
	}
	if cmd.Kind != KindKD || cmd.Name != "kdxy" || cmd.Table != "people" {
		t.Fatalf("unexpected parse: %+v", cmd)
	}
	want := []string{"x", "y"}
	if len(cmd.FieldNames) != len(want) || cmd.FieldNames[0] != want[0] || cmd.FieldNames[1] != want[1] {
		t.Errorf("expected field names %v, got %v", want, cmd.FieldNames)
	}
}

func TestParseCreateIndexLowercaseKind(t *testing.T) {
	cmd, err := ParseCreateIndex("createIndex r rxy people (x, y)")
	if err != nil {
		t.Fatalf("ParseCreateIndex failed: %v", err)
	}
	if cmd.Kind != KindR {
		t.Errorf("expected kind R, got %s", cmd.Kind)
	}
}

func TestParseCreateIndexUnknownKindFails(t *testing.T) {
	if _, err := ParseCreateIndex("createIndex BTREE idx people (x)"); err == nil {
		t.Error("expected an error for an unknown index kind")
	}
}

func TestParseCreateIndexMalformedFails(t *testing.T) {
	if _, err := ParseCreateIndex("createIndex KD kdxy people"); err == nil {
		t.Error("expected an error when the field list is missing")
	}
}

func TestParseUseIndexEQ(t *testing.T) {
	cmd, err := ParseUseIndex("useIndex KD EQ kdxy people (5, 2)")
	if err != nil {
		t.Fatalf("ParseUseIndex failed: %v", err)
	}
	if cmd.QueryKind != QueryEQ || len(cmd.Literals) != 1 {
		t.Fatalf("unexpected parse: %+v", cmd)
	}
	if cmd.Literals[0][0] != "5" || cmd.Literals[0][1] != "2" {
		t.Errorf("expected literal (5,2), got %v", cmd.Literals[0])
	}
}

func TestParseUseIndexRANGE(t *testing.T) {
	cmd, err := ParseUseIndex("useIndex KD RANGE kdxy people (3, 2);(10, 8)")
	if err != nil {
		t.Fatalf("ParseUseIndex failed: %v", err)
	}
	if cmd.QueryKind != QueryRANGE || len(cmd.Literals) != 2 {
		t.Fatalf("unexpected parse: %+v", cmd)
	}
	if cmd.Literals[0][0] != "3" || cmd.Literals[1][1] != "8" {
		t.Errorf("unexpected literals: %v", cmd.Literals)
	}
}

func TestParseUseIndexRANGEMissingSeparatorFails(t *testing.T) {
	if _, err := ParseUseIndex("useIndex KD RANGE kdxy people (3, 2) (10, 8)"); err == nil {
		t.Error("expected an error when RANGE literals aren't ';'-separated")
	}
}

func TestParseUseIndexKNN(t *testing.T) {
	cmd, err := ParseUseIndex("useIndex R KNN rxy people (9, 4) 3")
	if err != nil {
		t.Fatalf("ParseUseIndex failed: %v", err)
	}
	if cmd.QueryKind != QueryKNN || cmd.K != 3 {
		t.Fatalf("unexpected parse: %+v", cmd)
	}
	if cmd.Literals[0][0] != "9" || cmd.Literals[0][1] != "4" {
		t.Errorf("unexpected literal: %v", cmd.Literals[0])
	}
}

func TestParseUseIndexKNNMissingKFails(t *testing.T) {
	if _, err := ParseUseIndex("useIndex R KNN rxy people (9, 4)"); err == nil {
		t.Error("expected an error when KNN's trailing k is missing")
	}
}

func TestParseUseIndexUnknownQueryKindFails(t *testing.T) {
	if _, err := ParseUseIndex("useIndex KD NEAR kdxy people (1, 2)"); err == nil {
		t.Error("expected an error for an unknown query kind")
	}
}

func TestParseUseIndexMalformedFails(t *testing.T) {
	if _, err := ParseUseIndex("useIndex KD EQ kdxy"); err == nil {
		t.Error("expected an error when the command is missing its argument list")
	}
}
