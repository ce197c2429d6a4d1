package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"
)

func TestCreateKnowledgeBase(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "name").String() != "contracts" {
			t.Errorf("name missing in body: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":{"kb_id":"k1"}}`))
	}))

	id, err := svc.CreateKnowledgeBase(context.Background(), "contracts")
	if err != nil {
		t.Fatalf("CreateKnowledgeBase failed: %v", err)
	}
	if id != "k1" {
		t.Errorf("id = %q, want k1", id)
	}
}

func TestListKnowledgeBases(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":{"kbs":[{"id":"k1","name":"contracts","doc_num":4,"chunk_num":120}],"total":7}}`))
	}))

	kbs, total, err := svc.ListKnowledgeBases(context.Background(), Page{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListKnowledgeBases failed: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(kbs) != 1 || kbs[0].DocCount != 4 || kbs[0].ChunkCount != 120 {
		t.Errorf("kbs = %+v", kbs)
	}
}

func TestKnowledgeBaseDetail(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kb_id") != "k1" {
			t.Errorf("kb_id = %q", r.URL.Query().Get("kb_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":{"id":"k1","name":"contracts","parser_id":"naive"}}`))
	}))

	kb, err := svc.KnowledgeBase(context.Background(), "k1")
	if err != nil {
		t.Fatalf("KnowledgeBase failed: %v", err)
	}
	if kb.ParserID != "naive" {
		t.Errorf("ParserID = %q, want naive", kb.ParserID)
	}
}

func TestRetrievalTest(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "question").String() != "renewal terms?" {
			t.Errorf("question missing: %s", body)
		}
		if gjson.GetBytes(body, "kb_id.0").String() != "k1" {
			t.Errorf("kb_id missing: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":{"chunks":[{"chunk_id":"ch1","content_with_weight":"Renews annually.","docnm_kwd":"contract.pdf","similarity":0.91}],"total":1}}`))
	}))

	chunks, total, err := svc.RetrievalTest(context.Background(), RetrievalRequest{
		KBIDs:    []string{"k1"},
		Question: "renewal terms?",
	})
	if err != nil {
		t.Fatalf("RetrievalTest failed: %v", err)
	}
	if total != 1 || len(chunks) != 1 {
		t.Fatalf("chunks = %+v, total = %d", chunks, total)
	}
	if chunks[0].Document != "contract.pdf" || chunks[0].Similarity != 0.91 {
		t.Errorf("chunk = %+v", chunks[0])
	}
}
