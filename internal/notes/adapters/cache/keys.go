// Package cache содержит реализации кэша заметок: Redis и in-memory.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"notewise/internal/notes/domain/entities"
)

const (
	listKeyPrefix    = "notes:list:"
	versionKeyPrefix = "notes:list-version:"
	searchKeyPrefix  = "notes:search:"
)

// Константы для логирования.
const (
	LogMethodGetList     = "NoteCache.GetList"
	LogMethodListVersion = "NoteCache.ListVersion"
	LogMethodSetList     = "NoteCache.SetList"
	LogMethodPatchList   = "NoteCache.PatchList"
	LogMethodInvalid     = "NoteCache.InvalidateList"
	LogMethodGetSearch   = "NoteCache.GetSearch"
	LogMethodSetSearch   = "NoteCache.SetSearch"

	ErrorFailedToGet    = "failed to get value from cache"
	ErrorFailedToSet    = "failed to set value in cache"
	ErrorFailedToDelete = "failed to delete value from cache"
	ErrorFailedToPatch  = "failed to patch cached list"
	ErrorFailedToDecode = "failed to decode cached notes"
	ErrorFailedToEncode = "failed to encode notes"
	ErrorFailedToClose  = "failed to close cache"
)

func listKey(userID string) string {
	return listKeyPrefix + userID
}

func versionKey(userID string) string {
	return versionKeyPrefix + userID
}

// searchKey не нормализует запрос: "cat" и "cat " дают в хранилище разные результаты.
func searchKey(userID, query string) string {
	return fmt.Sprintf("%s%s:%s", searchKeyPrefix, userID, query)
}

// versionTTL переживает список, чтобы версия не сбросилась, пока снимок еще в кэше.
func versionTTL(listTTL time.Duration) time.Duration {
	return 2 * listTTL
}

func encodeNotes(notes []*entities.Note) ([]byte, error) {
	if notes == nil {
		notes = []*entities.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorFailedToEncode, err)
	}
	return data, nil
}

func decodeNotes(data []byte) ([]*entities.Note, error) {
	var notes []*entities.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDecode, err)
	}
	return notes, nil
}

func cloneNotes(notes []*entities.Note) []*entities.Note {
	out := make([]*entities.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Clone())
	}
	return out
}
