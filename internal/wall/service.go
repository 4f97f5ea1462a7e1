// Package wall walks and mutates a user's wall page by page, pacing
// every call so the API's rate limits are never hit.
package wall

import (
	"context"
	"errors"
	"time"

	"wallsweep/internal/vk"

	"github.com/rs/zerolog"
)

const (
	DefaultPageSize    = 100
	DefaultPagePause   = 500 * time.Millisecond
	DefaultDeletePause = time.Second
)

// API is the slice of the VK client the service needs.
type API interface {
	WallGet(ctx context.Context, s vk.Session, count, offset int) ([]vk.Post, error)
	WallDelete(ctx context.Context, s vk.Session, postID int) error
}

// Outcome is the result of one delete call. Err is nil only when the
// API confirmed the deletion.
type Outcome struct {
	PostID int
	Err    error
}

// Summary tallies a bulk delete run. Deleted+Failed always equals the
// number of posts handed in.
type Summary struct {
	Deleted  int
	Failed   int
	Outcomes []Outcome
}

func (s Summary) AllDeleted() bool {
	return s.Failed == 0
}

// Service runs the sequential enumerate and delete loops. Pause is a
// seam for tests; everything else keeps its default from NewService.
type Service struct {
	API         API
	Log         zerolog.Logger
	Pause       func(time.Duration)
	PageSize    int
	PagePause   time.Duration
	DeletePause time.Duration
}

func NewService(api API, logger zerolog.Logger) *Service {
	return &Service{
		API:         api,
		Log:         logger,
		Pause:       time.Sleep,
		PageSize:    DefaultPageSize,
		PagePause:   DefaultPagePause,
		DeletePause: DefaultDeletePause,
	}
}

// EnumerateAll fetches the whole wall in pages. A fetch failure ends
// the walk and the posts collected so far are returned; the log line is
// the only signal that the result may be incomplete.
func (s *Service) EnumerateAll(ctx context.Context, session vk.Session) []vk.Post {
	var posts []vk.Post
	offset := 0

	for {
		page, err := s.API.WallGet(ctx, session, s.PageSize, offset)
		if err != nil {
			s.Log.Error().Err(err).Int("offset", offset).Msg("wall page fetch failed, keeping partial result")
			break
		}
		if len(page) == 0 {
			break
		}

		posts = append(posts, page...)
		offset += s.PageSize
		s.Pause(s.PagePause)

		if len(page) < s.PageSize {
			break
		}
	}

	s.Log.Info().Int("posts", len(posts)).Msg("wall enumerated")
	return posts
}

// DeleteAll deletes every post in order, one call at a time, pausing
// after each call including the last. Failures are recorded, never
// fatal: the loop always runs to the end of the collection.
func (s *Service) DeleteAll(ctx context.Context, session vk.Session, posts []vk.Post) Summary {
	summary := Summary{Outcomes: make([]Outcome, 0, len(posts))}

	for i, post := range posts {
		err := s.API.WallDelete(ctx, session, post.ID)
		if err != nil {
			summary.Failed++
			var apiErr *vk.APIError
			if errors.As(err, &apiErr) {
				s.Log.Warn().
					Int("post_id", post.ID).
					Int("error_code", apiErr.Code).
					Str("error_msg", apiErr.Msg).
					Msg("delete rejected")
			} else {
				s.Log.Warn().Err(err).Int("post_id", post.ID).Msg("delete failed")
			}
		} else {
			summary.Deleted++
			s.Log.Info().
				Int("post_id", post.ID).
				Int("done", i+1).
				Int("total", len(posts)).
				Msg("post deleted")
		}
		summary.Outcomes = append(summary.Outcomes, Outcome{PostID: post.ID, Err: err})

		s.Pause(s.DeletePause)
	}

	return summary
}
