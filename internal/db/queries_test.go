package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestSet creates a set record with default values for testing.
func newTestSet(id, name string, voxels ...voxel.ID) *SetRecord {
	now := time.Now().Unix()
	return &SetRecord{
		ID:        id,
		NameRaw:   name,
		NameNorm:  name,
		Voxels:    voxels,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPutListDeleteVoxels(t *testing.T) {
	db := openTestDB(t)

	a := voxel.NewID(0, 0, 0, voxel.Size4cm)
	b := voxel.NewID(-4, 8, 4, voxel.Size4cm)
	c := voxel.NewID(0, 0, 0, voxel.Size8cm)

	added, err := PutVoxels(db, []voxel.ID{c, a, b, a})
	if err != nil {
		t.Fatalf("PutVoxels failed: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}

	got, err := ListVoxels(db)
	if err != nil {
		t.Fatalf("ListVoxels failed: %v", err)
	}
	if diff := cmp.Diff([]voxel.ID{b, a, c}, got); diff != "" {
		t.Errorf("ListVoxels mismatch (-want +got):\n%s", diff)
	}

	removed, err := DeleteVoxels(db, []voxel.ID{a, voxel.NewID(100, 0, 0, voxel.Size1cm)})
	if err != nil {
		t.Fatalf("DeleteVoxels failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	n, err := CountVoxels(db)
	if err != nil {
		t.Fatalf("CountVoxels failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountVoxels = %d, want 2", n)
	}
}

func TestPutVoxels_Empty(t *testing.T) {
	db := openTestDB(t)

	if n, err := PutVoxels(db, nil); err != nil || n != 0 {
		t.Errorf("PutVoxels(nil) = %d, %v", n, err)
	}
	if n, err := DeleteVoxels(db, nil); err != nil || n != 0 {
		t.Errorf("DeleteVoxels(nil) = %d, %v", n, err)
	}
}

func TestWorkspace(t *testing.T) {
	db := openTestDB(t)

	if _, ok, err := GetWorkspace(db); err != nil || ok {
		t.Fatalf("GetWorkspace on fresh db = ok %v, err %v", ok, err)
	}

	for _, want := range []r3.Vec{{X: 4, Y: 3, Z: 4}, {X: 8, Y: 8, Z: 2.5}} {
		if err := SetWorkspace(db, want); err != nil {
			t.Fatalf("SetWorkspace failed: %v", err)
		}
		got, ok, err := GetWorkspace(db)
		if err != nil || !ok {
			t.Fatalf("GetWorkspace = ok %v, err %v", ok, err)
		}
		if got != want {
			t.Errorf("GetWorkspace = %v, want %v", got, want)
		}
	}
}

func TestInsertAndGetSetByName(t *testing.T) {
	db := openTestDB(t)

	voxels := []voxel.ID{voxel.NewID(0, 0, 0, voxel.Size4cm), voxel.NewID(4, 0, 0, voxel.Size4cm)}
	r := newTestSet("01SET", "walls", voxels...)
	r.NameRaw = "Walls"

	if err := InsertSet(db, r); err != nil {
		t.Fatalf("InsertSet failed: %v", err)
	}

	got, err := GetSetByName(db, "walls")
	if err != nil {
		t.Fatalf("GetSetByName failed: %v", err)
	}
	if got.ID != "01SET" || got.NameRaw != "Walls" {
		t.Errorf("got ID %q name %q", got.ID, got.NameRaw)
	}
	if got.VoxelCount != 2 {
		t.Errorf("VoxelCount = %d, want 2", got.VoxelCount)
	}
	if diff := cmp.Diff(voxels, got.Voxels); diff != "" {
		t.Errorf("Voxels mismatch (-want +got):\n%s", diff)
	}
	if got.DeletedAt != nil {
		t.Error("DeletedAt should be nil")
	}
}

func TestInsertSet_Duplicate(t *testing.T) {
	db := openTestDB(t)

	if err := InsertSet(db, newTestSet("01A", "walls")); err != nil {
		t.Fatalf("first InsertSet failed: %v", err)
	}
	err := InsertSet(db, newTestSet("01B", "walls"))
	if err != ErrUniqueConstraint {
		t.Errorf("second InsertSet error = %v, want ErrUniqueConstraint", err)
	}
}

func TestGetSetByName_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetSetByName(db, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateSetByID(t *testing.T) {
	db := openTestDB(t)

	r := newTestSet("01A", "walls", voxel.NewID(0, 0, 0, voxel.Size4cm))
	r.UpdatedAt = 1
	if err := InsertSet(db, r); err != nil {
		t.Fatalf("InsertSet failed: %v", err)
	}

	r.Voxels = []voxel.ID{voxel.NewID(8, 8, 8, voxel.Size8cm), voxel.NewID(0, 0, 0, voxel.Size8cm)}
	if err := UpdateSetByID(db, r); err != nil {
		t.Fatalf("UpdateSetByID failed: %v", err)
	}
	if r.UpdatedAt <= 1 {
		t.Error("UpdatedAt should advance")
	}

	got, err := GetSetByName(db, "walls")
	if err != nil {
		t.Fatalf("GetSetByName failed: %v", err)
	}
	if got.VoxelCount != 2 || len(got.Voxels) != 2 {
		t.Errorf("got %d voxels (count %d), want 2", len(got.Voxels), got.VoxelCount)
	}

	missing := newTestSet("nope", "nope")
	if err := UpdateSetByID(db, missing); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("update of missing set error = %v, want NOT_FOUND", err)
	}
}

func TestSoftDeleteSet_FreesName(t *testing.T) {
	db := openTestDB(t)

	if err := InsertSet(db, newTestSet("01A", "walls")); err != nil {
		t.Fatalf("InsertSet failed: %v", err)
	}
	if err := SoftDeleteSet(db, "01A"); err != nil {
		t.Fatalf("SoftDeleteSet failed: %v", err)
	}
	if err := SoftDeleteSet(db, "01A"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDeleteSet error = %v, want NOT_FOUND", err)
	}
	if _, err := GetSetByName(db, "walls"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted set still visible: %v", err)
	}

	// The partial unique index only covers active rows.
	if err := InsertSet(db, newTestSet("01B", "walls")); err != nil {
		t.Errorf("reusing a deleted name failed: %v", err)
	}
}

func TestListSets(t *testing.T) {
	db := openTestDB(t)

	for _, r := range []*SetRecord{
		newTestSet("01A", "roof", voxel.NewID(0, 0, 0, voxel.Size4cm)),
		newTestSet("01B", "floor"),
		newTestSet("01C", "@current"),
		newTestSet("01D", "gone"),
	} {
		if err := InsertSet(db, r); err != nil {
			t.Fatalf("InsertSet(%s) failed: %v", r.NameNorm, err)
		}
	}
	if err := SoftDeleteSet(db, "01D"); err != nil {
		t.Fatalf("SoftDeleteSet failed: %v", err)
	}

	got, err := ListSets(db)
	if err != nil {
		t.Fatalf("ListSets failed: %v", err)
	}
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"floor", "roof"}, names); diff != "" {
		t.Errorf("ListSets names mismatch (-want +got):\n%s", diff)
	}
	if got[1].VoxelCount != 1 {
		t.Errorf("roof VoxelCount = %d, want 1", got[1].VoxelCount)
	}
}

func TestPurgeDeletedSets(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"01A", "01B", "01C"} {
		if err := InsertSet(db, newTestSet(id, "set-"+id)); err != nil {
			t.Fatalf("InsertSet failed: %v", err)
		}
	}
	for _, id := range []string{"01A", "01B"} {
		if err := SoftDeleteSet(db, id); err != nil {
			t.Fatalf("SoftDeleteSet failed: %v", err)
		}
	}

	// Nothing was deleted a day ago.
	n, err := PurgeDeletedSets(db, 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeDeletedSets failed: %v", err)
	}
	if n != 0 {
		t.Errorf("purged %d with age filter, want 0", n)
	}

	n, err = PurgeDeletedSets(db, 0)
	if err != nil {
		t.Fatalf("PurgeDeletedSets failed: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d, want 2", n)
	}

	if _, err := GetSetByName(db, "set-01C"); err != nil {
		t.Errorf("active set was purged: %v", err)
	}
}
