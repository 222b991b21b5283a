package recorder

import (
	"github.com/google/uuid"

	"fpl-strategy-mcp/internal/model"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPlan(_ string, _, _ int, _ []byte) (string, error) {
	return uuid.NewString(), nil
}
func (n *NoopRecorder) Plans(_, _ int) ([]PlanRecord, error)                { return nil, nil }
func (n *NoopRecorder) SaveBookmark(_ Bookmark) error                       { return nil }
func (n *NoopRecorder) DeleteBookmark(_ int, _ model.ChipType, _ int) error { return nil }
func (n *NoopRecorder) Bookmarks(_ int) ([]Bookmark, error)                 { return nil, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
