package handlers

import (
	"net/http"

	"vibeflow/internal/domain"
)

// Gallery lists recent successful generations across all users for the
// public landing page. It takes no auth and caps the result count.
func (a *App) Gallery(w http.ResponseWriter, r *http.Request) {
	limit := a.GalleryLimit
	if limit <= 0 {
		limit = 30
	}
	gens, err := a.Generations.ListRecentSuccessful(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("gallery fetch failed")
		// The gallery is decorative; an empty page beats an error page.
		a.json(w, http.StatusOK, map[string]any{"items": []any{}})
		return
	}

	items := make([]map[string]any, 0, len(gens))
	for _, gen := range gens {
		item := map[string]any{
			"id":         gen.ID,
			"kind":       string(gen.Kind),
			"prompt":     gen.Prompt,
			"created_at": gen.CreatedAt,
		}
		switch gen.Kind {
		case domain.GenerationKindMusic:
			item["audio_url"] = gen.ResultURL
			if gen.SecondaryMediaURL != "" {
				item["image_url"] = gen.SecondaryMediaURL
			}
			if gen.Title != "" {
				item["title"] = gen.Title
			}
		default:
			item["video_url"] = gen.ResultURL
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
