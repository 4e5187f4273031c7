package embedding

import "testing"

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, mask, types := tok.Tokenize("hello world", 8)
	if len(ids) != 8 || len(mask) != 8 || len(types) != 8 {
		t.Fatalf("lengths %d %d %d", len(ids), len(mask), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("missing [CLS]: %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("missing [SEP] after two words: %v", ids)
	}
	if mask[0] != 1 || mask[1] != 1 || mask[2] != 1 || mask[3] != 1 || mask[4] != 0 {
		t.Errorf("mask = %v", mask)
	}
}

func TestSimpleTokenizer_TruncatesLongText(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, mask, _ := tok.Tokenize("a b c d e f g h i j", 4)
	if len(ids) != 4 {
		t.Fatalf("len=%d", len(ids))
	}
	// All positions used, no panic on overflow.
	for i, m := range mask {
		if m != 1 {
			t.Errorf("mask[%d]=%d", i, m)
		}
	}
}

func TestHashString(t *testing.T) {
	if HashString("word") != HashString("word") {
		t.Error("hash not deterministic")
	}
	if HashString("") != 0 {
		t.Errorf("empty hash = %d", HashString(""))
	}
	if HashString("anything") < 0 {
		t.Error("negative hash")
	}
}
