package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ragline/ragline/core"
)

// ListConversations returns the conversations under a dialog.
func (s *Service) ListConversations(ctx context.Context, dialogID string) ([]Conversation, error) {
	data, err := s.c.Do(ctx, "/conversation/list?dialog_id="+url.QueryEscape(dialogID), core.RequestOptions{})
	if err != nil {
		return nil, err
	}
	var convs []Conversation
	if err := decode(data, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetConversation fetches one conversation with its full turn history.
func (s *Service) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	data, err := s.c.Do(ctx, "/conversation/get?conversation_id="+url.QueryEscape(id), core.RequestOptions{})
	if err != nil {
		return nil, err
	}
	var conv Conversation
	if err := decode(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SetConversation creates or renames a conversation. Leave ID empty to
// create.
func (s *Service) SetConversation(ctx context.Context, conv Conversation) (*Conversation, error) {
	body := map[string]any{
		"dialog_id": conv.DialogID,
		"name":      conv.Name,
	}
	if conv.ID != "" {
		body["conversation_id"] = conv.ID
	} else {
		body["is_new"] = true
	}
	data, err := s.c.Do(ctx, "/conversation/set", core.RequestOptions{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	var out Conversation
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveConversations deletes conversations by id.
func (s *Service) RemoveConversations(ctx context.Context, ids []string) error {
	_, err := s.c.Do(ctx, "/conversation/rm", core.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"conversation_ids": ids},
	})
	return err
}

// CompletionRequest asks for an answer within a conversation.
type CompletionRequest struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// Completion sends a completion request and streams the answer back. The
// request is always marked as streaming; data events carry incremental
// answer snapshots decodable with DecodeDelta.
func (s *Service) Completion(ctx context.Context, req CompletionRequest) (*core.Stream, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload, err = sjson.SetBytes(payload, "stream", true)
	if err != nil {
		return nil, err
	}
	return s.c.OpenStream(ctx, "/conversation/completion", payload, core.RequestOptions{})
}

// Delta is one incremental answer snapshot from a completion stream. The
// backend resends the whole answer so far, not a suffix. Reference holds
// the raw citation payload when the backend attaches one.
type Delta struct {
	Answer    string
	ID        string
	Reference json.RawMessage
}

// DecodeDelta extracts the answer snapshot from a stream data event. The
// answer may sit at the top level or under a data wrapper depending on
// the backend version.
func DecodeDelta(ev core.StreamEvent) (Delta, bool) {
	if ev.Kind != core.StreamData || len(ev.Data) == 0 {
		return Delta{}, false
	}
	body := string(ev.Data)
	answer := gjson.Get(body, "answer")
	if !answer.Exists() {
		answer = gjson.Get(body, "data.answer")
	}
	if !answer.Exists() {
		return Delta{}, false
	}
	id := gjson.Get(body, "id")
	if !id.Exists() {
		id = gjson.Get(body, "data.id")
	}
	ref := gjson.Get(body, "reference")
	if !ref.Exists() {
		ref = gjson.Get(body, "data.reference")
	}
	d := Delta{Answer: answer.String(), ID: id.String()}
	if ref.Exists() {
		d.Reference = json.RawMessage(ref.Raw)
	}
	return d, true
}
