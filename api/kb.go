package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ragline/ragline/core"
)

// CreateKnowledgeBase creates an empty knowledge base and returns its id.
func (s *Service) CreateKnowledgeBase(ctx context.Context, name string) (string, error) {
	data, err := s.c.Do(ctx, "/kb/create", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"name": name},
	})
	if err != nil {
		return "", err
	}
	var out struct {
		KBID string `json:"kb_id"`
	}
	if err := decode(data, &out); err != nil {
		return "", err
	}
	return out.KBID, nil
}

// UpdateKnowledgeBase updates the mutable settings of a knowledge base.
func (s *Service) UpdateKnowledgeBase(ctx context.Context, kb KnowledgeBase) error {
	_, err := s.c.Do(ctx, "/kb/update", core.RequestOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"kb_id":       kb.ID,
			"name":        kb.Name,
			"description": kb.Description,
			"permission":  kb.Permission,
			"parser_id":   kb.ParserID,
		},
	})
	return err
}

// KnowledgeBase fetches one knowledge base by id.
func (s *Service) KnowledgeBase(ctx context.Context, id string) (*KnowledgeBase, error) {
	data, err := s.c.Do(ctx, "/kb/detail?kb_id="+url.QueryEscape(id), core.RequestOptions{})
	if err != nil {
		return nil, err
	}
	var kb KnowledgeBase
	if err := decode(data, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// ListKnowledgeBases returns one page of knowledge bases plus the total
// count.
func (s *Service) ListKnowledgeBases(ctx context.Context, page Page) ([]KnowledgeBase, int64, error) {
	endpoint := fmt.Sprintf("/kb/list?page=%d&page_size=%d&keywords=%s", page.Page, page.PageSize, url.QueryEscape(page.Keywords))
	data, err := s.c.Do(ctx, endpoint, core.RequestOptions{})
	if err != nil {
		return nil, 0, err
	}
	var out struct {
		KBs   []KnowledgeBase `json:"kbs"`
		Total int64           `json:"total"`
	}
	if err := decode(data, &out); err != nil {
		return nil, 0, err
	}
	return out.KBs, out.Total, nil
}

// RemoveKnowledgeBase deletes a knowledge base and everything in it.
func (s *Service) RemoveKnowledgeBase(ctx context.Context, id string) error {
	_, err := s.c.Do(ctx, "/kb/rm", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"kb_id": id},
	})
	return err
}

// RetrievalRequest queries chunks across knowledge bases.
type RetrievalRequest struct {
	KBIDs               []string `json:"kb_id"`
	Question            string   `json:"question"`
	Page                int      `json:"page,omitempty"`
	PageSize            int      `json:"size,omitempty"`
	SimilarityThreshold float64  `json:"similarity_threshold,omitempty"`
	VectorWeight        float64  `json:"vector_similarity_weight,omitempty"`
	TopK                int      `json:"top_k,omitempty"`
}

// RetrievalTest runs a retrieval query and returns the matched chunks
// with their scores.
func (s *Service) RetrievalTest(ctx context.Context, req RetrievalRequest) ([]Chunk, int64, error) {
	data, err := s.c.Do(ctx, "/chunk/retrieval_test", core.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	})
	if err != nil {
		return nil, 0, err
	}
	var out struct {
		Chunks []Chunk `json:"chunks"`
		Total  int64   `json:"total"`
	}
	if err := decode(data, &out); err != nil {
		return nil, 0, err
	}
	return out.Chunks, out.Total, nil
}
