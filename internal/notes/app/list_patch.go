package app

import (
	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/cache"
)

// Патчи списка сохраняют порядок updated_at DESC: измененная заметка всегда самая свежая.

func putFirst(note *entities.Note) cache.ListPatch {
	return func(notes []*entities.Note) []*entities.Note {
		out := make([]*entities.Note, 0, len(notes)+1)
		out = append(out, note.Clone())
		for _, n := range notes {
			if n.ID != note.ID {
				out = append(out, n)
			}
		}
		return out
	}
}

func removeNote(noteID string) cache.ListPatch {
	return func(notes []*entities.Note) []*entities.Note {
		out := make([]*entities.Note, 0, len(notes))
		for _, n := range notes {
			if n.ID != noteID {
				out = append(out, n)
			}
		}
		return out
	}
}
