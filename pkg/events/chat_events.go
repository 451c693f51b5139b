package events

import "time"

const (
	TypeChatTurnCompleted = "chat.turn.completed"
	TypeDocumentIngested  = "document.ingested"
	TypePageFetched       = "crawl.page.fetched"
)

// NewChatTurnCompleted is emitted after an answer has been generated and
// persisted, carrying what downstream analytics need.
func NewChatTurnCompleted(sessionID, language string, citations int, rerankDegraded bool) Event {
	return BaseEvent{
		Type: TypeChatTurnCompleted,
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"language":        language,
			"citations":       citations,
			"rerank_degraded": rerankDegraded,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngested is emitted once a document's chunks and embeddings
// have been written.
func NewDocumentIngested(documentID, url string, chunks int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentID,
			"url":         url,
			"chunks":      chunks,
		},
		OccurredAt: time.Now(),
	}
}

// NewPageFetched is emitted by the crawler for every fetched page; the
// ingest consumer turns it into a document.
func NewPageFetched(url, title, language, content string) Event {
	return BaseEvent{
		Type: TypePageFetched,
		Data: map[string]interface{}{
			"url":      url,
			"title":    title,
			"language": language,
			"content":  content,
		},
		OccurredAt: time.Now(),
	}
}
