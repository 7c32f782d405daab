package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Akaza561/med-bridge/internal/domain"
)

func TestScanFlow_AttachScanSave(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := login(t, f, "alice", domain.RoleUser)
	f.analyzer.details = domain.MedicineDetails{MedicineName: "Ibuprofen 200mg", ExpiryDate: "03/2027", Dosage: "2 pills daily"}

	state, err := f.scan.Attach(user, "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(state.Draft.Images) != 1 || state.Draft.Images[0].ID == "" {
		t.Fatalf("attachment missing id: %+v", state.Draft)
	}

	state, err = f.scan.Scan(ctx, user)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if state.Draft.Scanning || state.Draft.Result == nil {
		t.Fatalf("unexpected draft after scan: %+v", state.Draft)
	}

	state, err = f.scan.Save(ctx, user)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !state.Draft.Saved {
		t.Fatal("draft should be marked saved")
	}
	// the record lands in front of the seeded stock
	rec := state.Stock[0]
	if rec.MedicineName != "Ibuprofen 200mg" || rec.ExpiryDate != "03/2027" || rec.Dosage != "2 pills daily" {
		t.Fatalf("fields not carried over: %+v", rec)
	}
	if len(rec.ImageURLs) != 1 || rec.ImageURLs[0] != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("images not attached: %+v", rec.ImageURLs)
	}
	if rec.ID == "" || rec.ID == "MED-101" {
		t.Fatalf("expected fresh id, got %q", rec.ID)
	}

	// scan next clears everything
	state, err = f.scan.Reset(user)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Draft.Images) != 0 || state.Draft.Result != nil || state.Draft.Saved {
		t.Fatalf("reset incomplete: %+v", state.Draft)
	}
}

func TestSave_PublishedDraftCannotSaveAgain(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := login(t, f, "alice", domain.RoleUser)
	f.analyzer.details = domain.MedicineDetails{MedicineName: "Ibuprofen 200mg", ExpiryDate: "03/2027", Dosage: "2 pills daily"}

	if _, err := f.scan.Attach(user, "AAAA"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.scan.Scan(ctx, user); err != nil {
		t.Fatal(err)
	}
	if _, err := f.scan.Save(ctx, user); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// a repeated save of the same draft must not mint a second record
	if _, err := f.scan.Save(ctx, user); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second save, got %v", err)
	}
	recs, err := f.store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, r := range recs {
		if r.MedicineName == "Ibuprofen 200mg" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 published record, got %d", count)
	}
}

func TestScan_NGOCannotRegister(t *testing.T) {
	f := setup(t)
	ngo := login(t, f, "helpers", domain.RoleNGO)
	if _, err := f.scan.Attach(ngo, "AAAA"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.scan.Scan(context.Background(), ngo); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.scan.Reset(ngo); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestScan_FailureKeepsImagesForRetry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := login(t, f, "alice", domain.RoleUser)
	f.analyzer.err = errors.New("no data found")

	if _, err := f.scan.Attach(user, "AAAA"); err != nil {
		t.Fatal(err)
	}
	_, err := f.scan.Scan(ctx, user)
	if err == nil {
		t.Fatal("expected analysis error")
	}
	state, _ := f.sessions.Get("alice")
	if state.Draft.ScanErr != "no data found" || len(state.Draft.Images) != 1 {
		t.Fatalf("failure state wrong: %+v", state.Draft)
	}

	// manual retry succeeds once the gateway recovers
	f.analyzer.err = nil
	f.analyzer.details = domain.MedicineDetails{MedicineName: "X", ExpiryDate: "Y", Dosage: domain.NotFound}
	state, err = f.scan.Scan(ctx, user)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if state.Draft.Result == nil || state.Draft.Result.Dosage != domain.NotFound {
		t.Fatalf("sentinel not preserved: %+v", state.Draft.Result)
	}
	if f.analyzer.calls != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", f.analyzer.calls)
	}
}

func TestSave_WithoutDraft(t *testing.T) {
	f := setup(t)
	user := login(t, f, "alice", domain.RoleUser)
	if _, err := f.scan.Save(context.Background(), user); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
