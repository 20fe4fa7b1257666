package store_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/calvinalkan/cuckoodo/internal/issue"
	"github.com/calvinalkan/cuckoodo/internal/store"
)

// Contract: concurrent inserts through one handle all land, each exactly once.
func Test_Concurrent_Inserts_All_Land(t *testing.T) {
	t.Parallel()

	forEachDriver(t, func(t *testing.T, s store.Store) {
		const workers, perWorker = 8, 10

		var wg sync.WaitGroup

		for w := range workers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for i := range perWorker {
					it, err := issue.New(1, fmt.Sprintf("w%d-%d", w, i), "", base, nil)
					if err != nil {
						t.Errorf("new issue: %v", err)

						return
					}

					err = s.Insert(t.Context(), it)
					if err != nil {
						t.Errorf("insert: %v", err)

						return
					}
				}
			}()
		}

		wg.Wait()

		got, err := s.Find(t.Context(), issue.Filter{Owner: 1})
		if err != nil {
			t.Fatalf("find: %v", err)
		}

		if len(got) != workers*perWorker {
			t.Fatalf("len = %d, want %d", len(got), workers*perWorker)
		}

		seen := make(map[string]bool, len(got))
		for _, it := range got {
			if seen[it.Text] {
				t.Fatalf("duplicate issue %q", it.Text)
			}

			seen[it.Text] = true
		}
	})
}

// Contract: a delete racing a done on the same id leaves the issue deleted or
// done-then-deleted; neither call reports a storage failure.
func Test_Concurrent_Delete_And_Done_Do_Not_Fail(t *testing.T) {
	t.Parallel()

	forEachDriver(t, func(t *testing.T, s store.Store) {
		it := mustInsert(t, s, 1, "race", "all", base)

		var wg sync.WaitGroup

		errs := make([]error, 2)

		wg.Add(2)

		go func() {
			defer wg.Done()

			errs[0] = s.Delete(t.Context(), it.ID)
		}()

		go func() {
			defer wg.Done()

			errs[1] = s.SetDone(t.Context(), it.ID)
		}()

		wg.Wait()

		if errs[0] != nil {
			t.Fatalf("delete: %v", errs[0])
		}

		if errs[1] != nil && !isNotFound(errs[1]) {
			t.Fatalf("done: %v", errs[1])
		}

		_, err := s.Get(t.Context(), it.ID)
		if !isNotFound(err) {
			t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
		}
	})
}

// Contract: two SQLite handles on one database see each other's writes.
func Test_SQLite_Handles_Share_Writes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "issues.sqlite")

	a, err := store.OpenSQLite(t.Context(), path)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}

	defer func() { _ = a.Close() }()

	b, err := store.OpenSQLite(t.Context(), path)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}

	defer func() { _ = b.Close() }()

	it := mustInsert(t, a, 1, "shared", "all", base.Add(time.Minute))

	err = b.SetDone(t.Context(), it.ID)
	if err != nil {
		t.Fatalf("done via b: %v", err)
	}

	got, err := a.Get(t.Context(), it.ID)
	if err != nil {
		t.Fatalf("get via a: %v", err)
	}

	if !got.Done {
		t.Fatal("done via b not visible via a")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, issue.ErrNotFound)
}
