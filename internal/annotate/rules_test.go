package annotate

import (
	"context"
	"testing"

	"github.com/ppiankov/petty/internal/model"
)

func TestRulesBackend_Tokens(t *testing.T) {
	doc := rulesDoc(t, "William Waters of Whitby, jet worker, on 16 March 1873.")

	want := []struct {
		text, tag string
	}{
		{"William", "NNP"}, {"Waters", "NNP"}, {"of", "IN"}, {"Whitby", "NNP"}, {",", ","},
		{"jet", "NN"}, {"worker", "NN"}, {",", ","}, {"on", "IN"}, {"16", "CD"},
		{"March", "NNP"}, {"1873", "CD"}, {".", "."},
	}
	if len(doc.Tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(doc.Tokens))
	}
	for i, w := range want {
		tok := doc.Tokens[i]
		if tok.Text != w.text || tok.Tag != w.tag {
			t.Errorf("token %d: expected %s/%s, got %s/%s", i, w.text, w.tag, tok.Text, tok.Tag)
		}
		if doc.Text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %d: offsets [%d,%d) do not match text", i, tok.Start, tok.End)
		}
		if tok.Entity != model.EntityNone {
			t.Errorf("token %d: rules backend must not tag entities", i)
		}
	}
}

func TestRulesBackend_Sentences(t *testing.T) {
	doc := rulesDoc(t, "H. Smith fined. Case heard at Whitby")

	if len(doc.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %v", doc.Sentences)
	}
	if doc.Sentences[0] != (model.Span{Start: 0, End: 5}) {
		t.Errorf("expected initial not to end a sentence, got %v", doc.Sentences[0])
	}
	if doc.Sentences[1].End != len(doc.Tokens) {
		t.Errorf("expected trailing sentence to reach the last token, got %v", doc.Sentences[1])
	}
}

func TestRulesBackend_Plurals(t *testing.T) {
	doc := rulesDoc(t, "miners glass")
	if doc.Tokens[0].Tag != "NNS" {
		t.Errorf("expected NNS for miners, got %s", doc.Tokens[0].Tag)
	}
	if doc.Tokens[1].Tag != "NN" {
		t.Errorf("expected NN for glass, got %s", doc.Tokens[1].Tag)
	}
}

func TestRulesBackend_ExtraLexicon(t *testing.T) {
	r := NewRulesBackend(map[string]string{"Sundry": "JJ"})
	doc, err := r.Annotate(context.Background(), "sundry goods")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Tokens[0].Tag != "JJ" {
		t.Errorf("expected lexicon override, got %s", doc.Tokens[0].Tag)
	}
}

func TestRulesBackend_Empty(t *testing.T) {
	doc := rulesDoc(t, "")
	if len(doc.Tokens) != 0 || len(doc.Sentences) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestRulesBackend_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRulesBackend(nil).Annotate(ctx, "text"); err == nil {
		t.Error("expected error on cancelled context")
	}
}
