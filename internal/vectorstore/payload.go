package vectorstore

import (
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/starseekers/starseekers/internal/models"
)

// Payload field names. These are the persisted schema; renaming any of them
// strands every existing record.
const (
	fieldFullName    = "fullName"
	fieldDescription = "description"
	fieldHTMLURL     = "htmlUrl"
	fieldLanguage    = "language"
	fieldTopics      = "topics"
	fieldHash        = "hash"
	fieldStarredBy   = "starredBy"
)

// recordPayload converts a record's metadata into a qdrant payload map.
// The vector is carried separately by the point struct.
func recordPayload(rec models.RepoRecord) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		fieldFullName:    stringValue(rec.FullName),
		fieldDescription: stringValue(rec.Description),
		fieldHTMLURL:     stringValue(rec.HTMLURL),
		fieldLanguage:    stringValue(rec.Language),
		fieldTopics:      stringListValue(rec.Topics),
		fieldHash:        stringValue(rec.Hash),
		fieldStarredBy:   stringListValue(rec.StarredBy),
	}
}

// payloadToRecord reads a point's payload back into a record. Vector data is
// intentionally not round-tripped; nothing downstream re-reads stored vectors.
func payloadToRecord(id int64, score float64, payload map[string]*qdrant.Value) models.RepoRecord {
	return models.RepoRecord{
		ID:          id,
		Score:       score,
		FullName:    payload[fieldFullName].GetStringValue(),
		Description: payload[fieldDescription].GetStringValue(),
		HTMLURL:     payload[fieldHTMLURL].GetStringValue(),
		Language:    payload[fieldLanguage].GetStringValue(),
		Topics:      stringList(payload[fieldTopics]),
		Hash:        payload[fieldHash].GetStringValue(),
		StarredBy:   stringList(payload[fieldStarredBy]),
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func stringListValue(items []string) *qdrant.Value {
	values := make([]*qdrant.Value, len(items))
	for i, item := range items {
		values[i] = stringValue(item)
	}
	return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
}

func stringList(v *qdrant.Value) []string {
	list := v.GetListValue()
	if list == nil {
		return []string{}
	}
	items := make([]string, 0, len(list.GetValues()))
	for _, val := range list.GetValues() {
		items = append(items, val.GetStringValue())
	}
	return items
}
