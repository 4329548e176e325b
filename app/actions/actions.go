// Package actions is the facade screens use to kick off background work.
package actions

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/km-arc/go-tivi/app/tivijobs"
	"github.com/km-arc/go-tivi/framework/jobs"
)

// TiviActions enqueues the app's background jobs.
type TiviActions interface {
	UpdateShowFromTMDb(ctx context.Context, showID int64) (jobs.ID, error)
	SyncTraktWatched(ctx context.Context) (jobs.ID, error)
}

// NewTiviActions returns the default implementation. It schedules on the
// process-wide job manager.
func NewTiviActions() TiviActions {
	return &tiviActions{manager: jobs.Default}
}

type tiviActions struct {
	manager func() *jobs.Manager
}

func (a *tiviActions) UpdateShowFromTMDb(ctx context.Context, showID int64) (jobs.ID, error) {
	if showID <= 0 {
		return jobs.ID{}, errors.Errorf("actions: invalid show id %d", showID)
	}
	return a.schedule(ctx, jobs.Request{
		Tag:    tivijobs.TagUpdateShowFromTMDb,
		Extras: map[string]string{tivijobs.ExtraShowID: strconv.FormatInt(showID, 10)},
	})
}

func (a *tiviActions) SyncTraktWatched(ctx context.Context) (jobs.ID, error) {
	return a.schedule(ctx, jobs.Request{Tag: tivijobs.TagSyncTraktWatched})
}

func (a *tiviActions) schedule(ctx context.Context, req jobs.Request) (jobs.ID, error) {
	if err := ctx.Err(); err != nil {
		return jobs.ID{}, err
	}
	id, err := a.manager().Schedule(req)
	return id, errors.Wrapf(err, "actions: schedule %s", req.Tag)
}
