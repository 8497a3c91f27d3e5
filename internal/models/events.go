package models

// SyncEvent is one entry of the ordered progress stream a sync run produces.
// The producer emits exactly one terminal event (complete or error) and then
// closes the channel; consumers drain it as a single forward-only sequence.
type SyncEvent interface {
	syncEvent()
}

// StartEvent opens every sync stream.
type StartEvent struct {
	Status string `json:"status"`
}

// FetchEvent is emitted after every fetched page of starred repositories.
type FetchEvent struct {
	Status       string `json:"status"`
	Page         int    `json:"page"`
	Fetched      int    `json:"fetched"`
	TotalFetched int    `json:"totalFetched"`
}

// EmbedEvent is emitted after every completed embedding batch.
type EmbedEvent struct {
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// UpsertEvent is emitted after every completed index upsert batch.
type UpsertEvent struct {
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// CompleteEvent terminates a successful sync. Synced counts repositories that
// were re-embedded and upserted this run; Total is the full starred set.
type CompleteEvent struct {
	Status string `json:"status"`
	Synced int    `json:"synced"`
	Total  int    `json:"total"`
}

// ErrorEvent terminates a failed sync.
type ErrorEvent struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (StartEvent) syncEvent()    {}
func (FetchEvent) syncEvent()    {}
func (EmbedEvent) syncEvent()    {}
func (UpsertEvent) syncEvent()   {}
func (CompleteEvent) syncEvent() {}
func (ErrorEvent) syncEvent()    {}

func NewStartEvent() StartEvent {
	return StartEvent{Status: "start"}
}

func NewFetchEvent(page, fetched, totalFetched int) FetchEvent {
	return FetchEvent{Status: "fetch", Page: page, Fetched: fetched, TotalFetched: totalFetched}
}

func NewEmbedEvent(completed, total int) EmbedEvent {
	return EmbedEvent{Status: "embed", Completed: completed, Total: total}
}

func NewUpsertEvent(completed, total int) UpsertEvent {
	return UpsertEvent{Status: "upsert", Completed: completed, Total: total}
}

func NewCompleteEvent(synced, total int) CompleteEvent {
	return CompleteEvent{Status: "complete", Synced: synced, Total: total}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Status: "error", Message: message}
}
