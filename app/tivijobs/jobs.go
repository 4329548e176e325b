// Package tivijobs holds the app's background jobs and the creator that
// maps their tags to implementations.
package tivijobs

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/app/tmdb"
	"github.com/km-arc/go-tivi/app/trakt"
	"github.com/km-arc/go-tivi/framework/jobs"
)

// Job tags.
const (
	TagUpdateShowFromTMDb = "update_show_from_tmdb"
	TagSyncTraktWatched   = "sync_trakt_watched"
)

// ExtraShowID carries the TMDb show id of an update request.
const ExtraShowID = "show_id"

// Creator builds the app's jobs.
type Creator struct {
	TMDb     *tmdb.Client
	Trakt    *trakt.Client
	CacheDir string
	Log      *zap.Logger
}

// Create implements jobs.Creator.
func (c *Creator) Create(tag string) jobs.Job {
	switch tag {
	case TagUpdateShowFromTMDb:
		return &UpdateShowFromTMDb{tmdb: c.TMDb, cacheDir: c.CacheDir, log: c.logger()}
	case TagSyncTraktWatched:
		return &SyncTraktWatched{trakt: c.Trakt, cacheDir: c.CacheDir, log: c.logger()}
	}
	return nil
}

func (c *Creator) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// ── UpdateShowFromTMDb ───────────────────────────────────────────────────────

// UpdateShowFromTMDb refreshes one show's cached TMDb record.
type UpdateShowFromTMDb struct {
	tmdb     *tmdb.Client
	cacheDir string
	log      *zap.Logger
}

// ShowCachePath is where a show's TMDb document is cached.
func ShowCachePath(cacheDir string, showID int64) string {
	return filepath.Join(cacheDir, "tmdb", "shows", strconv.FormatInt(showID, 10)+".json")
}

func (j *UpdateShowFromTMDb) Run(ctx context.Context, p jobs.Params) jobs.Result {
	showID, err := strconv.ParseInt(p.Extras[ExtraShowID], 10, 64)
	if err != nil || showID <= 0 {
		j.log.Error("update show: bad show id", zap.String("show_id", p.Extras[ExtraShowID]))
		return jobs.Failure
	}
	log := j.log.With(zap.Int64("show_id", showID))

	show, raw, err := j.tmdb.Show(ctx, showID)
	switch {
	case errors.Is(err, tmdb.ErrNotFound), errors.Is(err, tmdb.ErrUnauthorized), errors.Is(err, tmdb.ErrBadResponse):
		log.Warn("update show failed", zap.Error(err))
		return jobs.Failure
	case err != nil:
		log.Info("update show will retry", zap.Error(err))
		return jobs.Reschedule
	}

	if err := writeCache(ShowCachePath(j.cacheDir, showID), raw); err != nil {
		log.Error("update show: cache write failed", zap.Error(err))
		return jobs.Failure
	}
	log.Info("show updated", zap.String("name", show.Name))
	return jobs.Success
}

// ── SyncTraktWatched ─────────────────────────────────────────────────────────

// SyncTraktWatched downloads the signed-in user's watched shows.
type SyncTraktWatched struct {
	trakt    *trakt.Client
	cacheDir string
	log      *zap.Logger
}

// WatchedCachePath is where the watched list is cached.
func WatchedCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, "trakt", "watched_shows.json")
}

func (j *SyncTraktWatched) Run(ctx context.Context, _ jobs.Params) jobs.Result {
	body, err := j.trakt.WatchedShows(ctx)
	switch {
	case errors.Is(err, trakt.ErrNotAuthorized):
		j.log.Warn("trakt sync skipped: not signed in")
		return jobs.Failure
	case err != nil:
		j.log.Info("trakt sync will retry", zap.Error(err))
		return jobs.Reschedule
	}

	if err := writeCache(WatchedCachePath(j.cacheDir), body); err != nil {
		j.log.Error("trakt sync: cache write failed", zap.Error(err))
		return jobs.Failure
	}
	j.log.Info("trakt watched shows synced", zap.Int("bytes", len(body)))
	return jobs.Success
}

// writeCache replaces path atomically.
func writeCache(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "cache dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "cache temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "cache write")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "cache close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "cache rename")
}
