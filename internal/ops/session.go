package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/voxsel/internal/config"
	"github.com/hpungsan/voxsel/internal/db"
	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/metrics"
	"github.com/hpungsan/voxsel/internal/selection"
	"github.com/hpungsan/voxsel/internal/store"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// CurrentSetName is the reserved row holding the live selection between runs.
const CurrentSetName = "@current"

// Session binds a selection manager to the voxel store and the database.
// Every operation holds the session lock, so a Session may be shared by
// concurrent MCP handlers.
type Session struct {
	mu sync.Mutex

	database *sql.DB
	cfg      *config.Config
	log      *slog.Logger

	store   *store.Memory
	env     *selection.Env
	manager *selection.Manager

	defaultRes voxel.Resolution
	signals    []selection.Signal
}

// Options configures optional Session collaborators.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Sink receives selection change events in addition to the session's
	// own logging.
	Sink selection.EventSink
}

// Open loads voxels, workspace, named sets and the last current selection
// from database and returns a ready Session.
func Open(ctx context.Context, database *sql.DB, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	defaultRes := voxel.Size4cm
	if cfg.DefaultResolution != "" {
		r, err := voxel.ParseResolution(cfg.DefaultResolution)
		if err != nil {
			return nil, errors.NewInvalidRequest("config default_resolution: " + err.Error())
		}
		defaultRes = r
	}
	conn, err := selection.ParseConnectivity(cfg.FloodFillConnectivity)
	if err != nil {
		return nil, errors.NewInvalidRequest("config flood_fill_connectivity: " + err.Error())
	}

	size := r3.Vec{X: cfg.WorkspaceSize[0], Y: cfg.WorkspaceSize[1], Z: cfg.WorkspaceSize[2]}
	if saved, ok, err := db.GetWorkspace(database); err != nil {
		return nil, err
	} else if ok {
		size = saved
	}

	mem := store.NewMemory(size)
	ids, err := db.ListVoxels(database)
	if err != nil {
		return nil, err
	}
	mem.Put(ids...)

	s := &Session{
		database:   database,
		cfg:        cfg,
		log:        log,
		store:      mem,
		defaultRes: defaultRes,
	}
	s.env = &selection.Env{
		Store:                mem,
		AssumeAllVoxelsExist: cfg.AssumeAllVoxelsExist,
		Logger:               log,
		Metrics:              opts.Metrics,
		OnSignal:             func(sig selection.Signal) { s.signals = append(s.signals, sig) },
	}

	s.manager = selection.NewManager(s.env, sessionSink{log: log, next: opts.Sink})
	if cfg.MaxHistorySize > 0 {
		s.manager.SetMaxHistorySize(cfg.MaxHistorySize)
	}
	s.manager.Box.IncludePartial = !cfg.StrictContainment
	s.manager.Sphere.IncludePartial = !cfg.StrictContainment
	if cfg.FalloffStart != nil {
		s.manager.Sphere.FalloffStart = *cfg.FalloffStart
	}
	s.manager.FloodFill.Connectivity = conn
	if cfg.FloodFillMaxVoxels > 0 {
		s.manager.FloodFill.MaxVoxels = cfg.FloodFillMaxVoxels
	}

	if err := s.hydrate(); err != nil {
		return nil, err
	}

	log.Debug("session opened",
		"voxels", mem.Len(),
		"workspace", size,
		"named_sets", len(s.manager.SelectionSetNames()),
		"selected", s.manager.SelectionSize())
	return s, nil
}

// hydrate restores named sets and the current selection.
func (s *Session) hydrate() error {
	summaries, err := db.ListSets(s.database)
	if err != nil {
		return err
	}
	for _, sum := range summaries {
		rec, err := db.GetSetByName(s.database, NormalizeName(sum.Name))
		if err != nil {
			return err
		}
		s.manager.RestoreSelectionSet(rec.NameNorm, selection.NewSet(rec.Voxels...))
	}

	rec, err := db.GetSetByName(s.database, CurrentSetName)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.manager.RestoreSelection(selection.NewSet(rec.Voxels...))
	return nil
}

// Manager exposes the underlying selection manager. Callers must not use
// it concurrently with Session operations.
func (s *Session) Manager() *selection.Manager {
	return s.manager
}

// Store exposes the in-memory voxel store.
func (s *Session) Store() *store.Memory {
	return s.store
}

// DefaultResolution is the resolution used when an input omits one.
func (s *Session) DefaultResolution() voxel.Resolution {
	return s.defaultRes
}

// begin locks the session and resets the per-operation signal buffer.
// The returned func unlocks.
func (s *Session) begin() func() {
	s.mu.Lock()
	s.signals = nil
	return s.mu.Unlock
}

// mutate runs fn against the manager. When the selection changed, the
// previous selection is pushed to history (unless skipHistory) and the
// new one is persisted.
func (s *Session) mutate(skipHistory bool, fn func(m *selection.Manager)) (bool, error) {
	before := s.manager.SelectionCopy()
	fn(s.manager)
	if before.Equal(s.manager.SelectionCopy()) {
		return false, nil
	}
	if !skipHistory {
		s.manager.PushHistory(before)
	}
	return true, s.persistCurrent()
}

// persistCurrent writes the live selection to the reserved row.
func (s *Session) persistCurrent() error {
	return s.writeSet(CurrentSetName, CurrentSetName, s.manager.SelectionCopy().Sorted())
}

// writeSet upserts a set row by normalized name.
func (s *Session) writeSet(raw, norm string, voxels []voxel.ID) error {
	existing, err := db.GetSetByName(s.database, norm)
	if err == nil {
		existing.NameRaw = raw
		existing.Voxels = voxels
		return db.UpdateSetByID(s.database, existing)
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	id, err := generateULID()
	if err != nil {
		return errors.NewInternal(err)
	}
	now := time.Now().Unix()
	return db.InsertSet(s.database, &db.SetRecord{
		ID:        id,
		NameRaw:   raw,
		NameNorm:  norm,
		Voxels:    voxels,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// warnings converts the signals raised during the current operation.
func (s *Session) warnings() []Warning {
	if len(s.signals) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(s.signals))
	for _, sig := range s.signals {
		out = append(out, warningFor(sig))
	}
	return out
}

// resolution returns res parsed, or the session default when empty.
func (s *Session) resolution(res string) (voxel.Resolution, error) {
	if res == "" {
		return s.defaultRes, nil
	}
	r, err := voxel.ParseResolution(res)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return r, nil
}

// sessionSink logs selection changes and forwards them.
type sessionSink struct {
	log  *slog.Logger
	next selection.EventSink
}

func (k sessionSink) SelectionChanged(e selection.Event) {
	k.log.Debug("selection changed",
		"type", e.Type.String(),
		"old", e.Old.Len(),
		"new", e.New.Len())
	if k.next != nil {
		k.next.SelectionChanged(e)
	}
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
