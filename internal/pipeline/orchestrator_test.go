package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/source"
)

type fakeEnum struct {
	files []model.FileDescriptor
	err   error
	calls int
}

func (f *fakeEnum) Enumerate(ctx context.Context, codes []string) ([]model.FileDescriptor, error) {
	f.calls++
	return f.files, f.err
}

type fakeLinks struct {
	err error
}

func (f *fakeLinks) ResolveDownloadURL(ctx context.Context, treePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://downloader.example" + treePath, nil
}

type fakeMarketplace struct {
	state       *RunState
	resolveErr  map[string]error
	uploadErr   map[int64]error
	ids         map[string]int64
	batches     map[int64][]string
	fileUploads []string
}

func newFakeMarketplace(state *RunState) *fakeMarketplace {
	return &fakeMarketplace{
		state:      state,
		resolveErr: map[string]error{},
		uploadErr:  map[int64]error{},
		ids:        map[string]int64{},
		batches:    map[int64][]string{},
	}
}

func (f *fakeMarketplace) ResolveProductID(ctx context.Context, code string) (int64, error) {
	if err := f.resolveErr[code]; err != nil {
		return 0, err
	}
	id, ok := f.ids[code]
	if !ok {
		return 0, fmt.Errorf("%w: no product for %q", model.ErrNotFound, code)
	}
	return id, nil
}

func (f *fakeMarketplace) UploadURLs(ctx context.Context, id int64, urls []string) error {
	if err := f.uploadErr[id]; err != nil {
		return err
	}
	f.batches[id] = append([]string(nil), urls...)
	f.state.MarkUploaded()
	return nil
}

func (f *fakeMarketplace) UploadFile(ctx context.Context, id int64, path string, photo uint) error {
	if err := f.uploadErr[id]; err != nil {
		return err
	}
	f.fileUploads = append(f.fileUploads, fmt.Sprintf("%d %s %d", id, path, photo))
	f.state.MarkUploaded()
	return nil
}

func descriptor(code, treePath string, photo uint) model.FileDescriptor {
	return model.FileDescriptor{Name: treePath, TreePath: treePath, StagingPath: treePath, VendorCode: code, PhotoNumber: photo}
}

func remoteOrchestrator(enum *fakeEnum, api *fakeMarketplace, state *RunState) *Orchestrator {
	return NewOrchestrator(Config{
		State:      state,
		Source:     source.Source{Kind: source.RemoteShare, Roots: []string{"root"}},
		Enumerator: enum,
		Links:      &fakeLinks{},
		API:        api,
	})
}

func TestRunIsIdempotentOnSuccess(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{files: []model.FileDescriptor{
		descriptor("A", "/A_1.jpg", 1),
		descriptor("A", "/A_2.jpg", 2),
		descriptor("B", "/B.jpg", 1),
	}}
	api := newFakeMarketplace(state)
	api.ids["A"], api.ids["B"] = 11, 22
	o := remoteOrchestrator(enum, api, state)

	for pass := 0; pass < 2; pass++ {
		if err := o.Run(context.Background(), []string{"A", "B"}); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		snap := state.Snapshot()
		if snap.Phase != model.PhaseCompleted {
			t.Fatalf("pass %d phase = %q", pass, snap.Phase)
		}
		if snap.ProcessedCodes != snap.TotalCodes || snap.TotalCodes != 2 {
			t.Fatalf("pass %d counts: %+v", pass, snap)
		}
		if len(snap.FailedCodes) != 0 {
			t.Fatalf("pass %d failed codes: %v", pass, snap.FailedCodes)
		}
	}

	// Batch order follows enumeration order, photo 1 first.
	want := []string{"https://downloader.example/A_1.jpg", "https://downloader.example/A_2.jpg"}
	if !reflect.DeepEqual(api.batches[11], want) {
		t.Fatalf("batch for A: %v", api.batches[11])
	}
}

func TestRunRecordsPerCodeFailuresAndContinues(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{files: []model.FileDescriptor{
		descriptor("A", "/A.jpg", 1),
		descriptor("C", "/C.jpg", 1),
	}}
	api := newFakeMarketplace(state)
	api.ids["A"], api.ids["B"], api.ids["C"] = 11, 22, 33
	api.resolveErr["A"] = &model.APIError{Status: 500, Body: "search down"}
	// B resolves but has no enumerated files.
	o := remoteOrchestrator(enum, api, state)

	if err := o.Run(context.Background(), []string{"A", "B", "C"}); err != nil {
		t.Fatalf("per-code failures must not abort the run: %v", err)
	}
	snap := state.Snapshot()
	if snap.Phase != model.PhaseCompleted || snap.ProcessedCodes != 3 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if !reflect.DeepEqual(snap.FailedCodes, []string{"A", "B"}) {
		t.Fatalf("failed codes: %v", snap.FailedCodes)
	}
	if len(api.batches[33]) != 1 {
		t.Fatalf("healthy code C must still upload: %v", api.batches)
	}
	if snap.UploadedProducts != 1 {
		t.Fatalf("uploaded products: %d", snap.UploadedProducts)
	}
}

func TestRunAbortsOnEnumerationFailure(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{err: fmt.Errorf("%w: listing down", model.ErrEnumeration)}
	api := newFakeMarketplace(state)
	o := remoteOrchestrator(enum, api, state)

	err := o.Run(context.Background(), []string{"A"})
	if !errors.Is(err, model.ErrEnumeration) {
		t.Fatalf("expected enumeration error, got %v", err)
	}
	snap := state.Snapshot()
	if snap.Phase != model.PhaseAborted || snap.ProcessedCodes != 0 {
		t.Fatalf("snapshot: %+v", snap)
	}
}

func TestRunRejectsEmptyCodeList(t *testing.T) {
	state := NewRunState()
	o := remoteOrchestrator(&fakeEnum{}, newFakeMarketplace(state), state)
	if err := o.Run(context.Background(), nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunLocalDirUploadsFileURLs(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{files: []model.FileDescriptor{
		{Name: "A_1.jpg", TreePath: "/src/A_1.jpg", StagingPath: "/staging/A_1.jpg", VendorCode: "A", PhotoNumber: 1},
	}}
	api := newFakeMarketplace(state)
	api.ids["A"] = 11
	o := NewOrchestrator(Config{
		State:      state,
		Source:     source.Source{Kind: source.LocalDir, Path: "/src"},
		Enumerator: enum,
		API:        api,
	})

	if err := o.Run(context.Background(), []string{"A"}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(api.batches[11], []string{"file:///staging/A_1.jpg"}) {
		t.Fatalf("batch: %v", api.batches[11])
	}
}

func TestRunSingleFileUploadsRawPerSlot(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{files: []model.FileDescriptor{
		{Name: "A_3.jpg", TreePath: "/f/A_3.jpg", StagingPath: "/f/A_3.jpg", VendorCode: "A", PhotoNumber: 3},
	}}
	api := newFakeMarketplace(state)
	api.ids["A"] = 11
	o := NewOrchestrator(Config{
		State:      state,
		Source:     source.Source{Kind: source.SingleFile, Path: "/f/A_3.jpg"},
		Enumerator: enum,
		API:        api,
	})

	if err := o.Run(context.Background(), []string{"A"}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(api.fileUploads, []string{"11 /f/A_3.jpg 3"}) {
		t.Fatalf("file uploads: %v", api.fileUploads)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	state := NewRunState()
	enum := &fakeEnum{files: []model.FileDescriptor{descriptor("A", "/A.jpg", 1)}}
	api := newFakeMarketplace(state)
	api.ids["A"] = 11
	o := remoteOrchestrator(enum, api, state)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Run(ctx, []string{"A"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if snap := state.Snapshot(); snap.Phase != model.PhaseAborted {
		t.Fatalf("phase: %q", snap.Phase)
	}
}
