package api

import "encoding/json"

// User is the account profile returned by login and register.
type User struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a dialog session with its accumulated turns. The
// backend serializes the turn list under the singular "message" key.
type Conversation struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	DialogID string    `json:"dialog_id"`
	Messages []Message `json:"message"`
	Created  int64     `json:"create_time,omitempty"`
	Updated  int64     `json:"update_time,omitempty"`
}

// KnowledgeBase is an indexed document collection.
type KnowledgeBase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	EmbeddingID string `json:"embd_id,omitempty"`
	ParserID    string `json:"parser_id,omitempty"`
	Permission  string `json:"permission,omitempty"`
	DocCount    int64  `json:"doc_num"`
	ChunkCount  int64  `json:"chunk_num"`
	TokenCount  int64  `json:"token_num"`
	Created     int64  `json:"create_time,omitempty"`
	Updated     int64  `json:"update_time,omitempty"`
}

// Document run states.
const (
	RunUnstarted = "0"
	RunRunning   = "1"
	RunCancelled = "2"
	RunDone      = "3"
	RunFailed    = "4"
)

// Document is one uploaded file inside a knowledge base.
type Document struct {
	ID          string  `json:"id"`
	KBID        string  `json:"kb_id"`
	Name        string  `json:"name"`
	Location    string  `json:"location,omitempty"`
	Size        int64   `json:"size"`
	Type        string  `json:"type,omitempty"`
	ParserID    string  `json:"parser_id,omitempty"`
	Run         string  `json:"run,omitempty"`
	Status      string  `json:"status,omitempty"`
	Progress    float64 `json:"progress"`
	ProgressMsg string  `json:"progress_msg,omitempty"`
	ChunkCount  int64   `json:"chunk_num"`
	TokenCount  int64   `json:"token_num"`
	Created     int64   `json:"create_time,omitempty"`
}

// Chunk is one retrieved passage with its ranking scores.
type Chunk struct {
	ID         string  `json:"chunk_id"`
	Content    string  `json:"content_with_weight"`
	DocumentID string  `json:"doc_id"`
	Document   string  `json:"docnm_kwd"`
	Similarity float64 `json:"similarity"`
	VectorSim  float64 `json:"vector_similarity"`
	TermSim    float64 `json:"term_similarity"`
}

// Page carries list pagination parameters. Zero values let the backend
// pick its defaults.
type Page struct {
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
	OrderBy  string `json:"orderby,omitempty"`
	Desc     bool   `json:"desc,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// decode unmarshals an envelope payload into out. A null or empty
// payload leaves out at its zero value.
func decode(data json.RawMessage, out any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}
