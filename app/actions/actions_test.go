package actions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/app/actions"
	"github.com/km-arc/go-tivi/app/tivijobs"
	"github.com/km-arc/go-tivi/framework/jobs"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

// recorder stands in for the app's creator on the process-wide manager.
type recorder struct {
	got chan jobs.Params
}

func (r *recorder) Create(tag string) jobs.Job {
	return jobs.JobFunc(func(_ context.Context, p jobs.Params) jobs.Result {
		r.got <- p
		return jobs.Success
	})
}

var rec = &recorder{got: make(chan jobs.Params, 8)}

func setup(t *testing.T) {
	t.Helper()
	pool := schedulers.NewPool(1, zap.NewNop())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	jobs.Default().SetExecutor(pool)
	jobs.Default().AddCreator(rec)
}

func next(t *testing.T) jobs.Params {
	t.Helper()
	select {
	case p := <-rec.got:
		return p
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	return jobs.Params{}
}

func TestUpdateShowFromTMDb_EnqueuesOnDefaultManager(t *testing.T) {
	setup(t)
	a := actions.NewTiviActions()

	id, err := a.UpdateShowFromTMDb(context.Background(), 1399)
	require.NoError(t, err)

	p := next(t)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, tivijobs.TagUpdateShowFromTMDb, p.Tag)
	assert.Equal(t, "1399", p.Extras[tivijobs.ExtraShowID])
}

func TestSyncTraktWatched_Enqueues(t *testing.T) {
	setup(t)

	_, err := actions.NewTiviActions().SyncTraktWatched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tivijobs.TagSyncTraktWatched, next(t).Tag)
}

func TestUpdateShowFromTMDb_RejectsBadInput(t *testing.T) {
	setup(t)
	a := actions.NewTiviActions()

	_, err := a.UpdateShowFromTMDb(context.Background(), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.UpdateShowFromTMDb(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
