package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ragline/ragline/core"
)

// UploadDocuments pushes files into a knowledge base as one multipart
// request. Extra metadata fields travel alongside the files; the kb_id
// field is filled from the argument.
func (s *Service) UploadDocuments(ctx context.Context, kbID string, files []core.FilePart, fields map[string]string) ([]Document, error) {
	merged := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["kb_id"] = kbID

	data, err := s.c.Upload(ctx, "/document/upload", files, merged, core.RequestOptions{})
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := decode(data, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListDocuments returns one page of a knowledge base's documents plus the
// total count.
func (s *Service) ListDocuments(ctx context.Context, kbID string, page Page) ([]Document, int64, error) {
	endpoint := fmt.Sprintf("/document/list?kb_id=%s&page=%d&page_size=%d&keywords=%s", url.QueryEscape(kbID), page.Page, page.PageSize, url.QueryEscape(page.Keywords))
	data, err := s.c.Do(ctx, endpoint, core.RequestOptions{})
	if err != nil {
		return nil, 0, err
	}
	var out struct {
		Docs  []Document `json:"docs"`
		Total int64      `json:"total"`
	}
	if err := decode(data, &out); err != nil {
		return nil, 0, err
	}
	return out.Docs, out.Total, nil
}

// RemoveDocuments deletes documents by id.
func (s *Service) RemoveDocuments(ctx context.Context, ids []string) error {
	_, err := s.c.Do(ctx, "/document/rm", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"doc_id": ids},
	})
	return err
}

// Parsing run commands.
const (
	RunStart  = 1
	RunCancel = 2
)

// RunDocuments starts or cancels chunk parsing for documents. run is
// RunStart or RunCancel.
func (s *Service) RunDocuments(ctx context.Context, ids []string, run int) error {
	_, err := s.c.Do(ctx, "/document/run", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"doc_ids": ids, "run": run},
	})
	return err
}

// ChangeParser switches a document's chunking method. Changing the
// parser drops any chunks already built from the old one.
func (s *Service) ChangeParser(ctx context.Context, docID, parserID string) error {
	_, err := s.c.Do(ctx, "/document/change_parser", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"doc_id": docID, "parser_id": parserID},
	})
	return err
}

// SetDocumentStatus enables or disables a document for retrieval without
// deleting it.
func (s *Service) SetDocumentStatus(ctx context.Context, docID string, enabled bool) error {
	status := "0"
	if enabled {
		status = "1"
	}
	_, err := s.c.Do(ctx, "/document/change_status", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"doc_id": docID, "status": status},
	})
	return err
}

// DownloadDocument fetches a document's original file. The caller owns
// the returned body.
func (s *Service) DownloadDocument(ctx context.Context, docID, filename string) (*core.Download, error) {
	return s.c.Download(ctx, "/document/get/"+docID, filename, core.RequestOptions{})
}
