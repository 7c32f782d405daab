package session

import (
	"errors"
	"testing"

	"github.com/Akaza561/med-bridge/internal/domain"
)

func TestReduce_AttachInvalidatesResult(t *testing.T) {
	s := State{}
	s, err := Reduce(s, AttachImage{Image: Attachment{ID: "a1", Data: "AAAA"}})
	if err != nil {
		t.Fatal(err)
	}
	s, _ = Reduce(s, ScanStarted{})
	s, _ = Reduce(s, ScanSucceeded{Details: domain.MedicineDetails{MedicineName: "X"}})

	s, err = Reduce(s, AttachImage{Image: Attachment{ID: "a2", Data: "BBBB"}})
	if err != nil {
		t.Fatal(err)
	}
	if s.Draft.Result != nil || s.Draft.Saved {
		t.Fatalf("new attachment should reset the draft result: %+v", s.Draft)
	}
	if len(s.Draft.Images) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(s.Draft.Images))
	}
}

func TestReduce_RemoveLastImageClearsDraft(t *testing.T) {
	s := State{}
	s, _ = Reduce(s, AttachImage{Image: Attachment{ID: "a1"}})
	s, err := Reduce(s, RemoveImage{AttachmentID: "a1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Draft.Images) != 0 || s.Draft.Result != nil {
		t.Fatalf("draft not cleared: %+v", s.Draft)
	}
}

func TestReduce_ScanGuards(t *testing.T) {
	s := State{}
	if _, err := Reduce(s, ScanStarted{}); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	s, _ = Reduce(s, AttachImage{Image: Attachment{ID: "a1"}})
	s, err := Reduce(s, ScanStarted{})
	if err != nil || !s.Draft.Scanning {
		t.Fatalf("scan should start: %v", err)
	}
	if _, err := Reduce(s, ScanStarted{}); !errors.Is(err, ErrScanBusy) {
		t.Fatalf("expected ErrScanBusy, got %v", err)
	}
}

func TestReduce_ScanFailureKeepsImages(t *testing.T) {
	s := State{}
	s, _ = Reduce(s, AttachImage{Image: Attachment{ID: "a1"}})
	s, _ = Reduce(s, ScanStarted{})
	s, err := Reduce(s, ScanFailed{Message: "no data found"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Draft.Scanning || s.Draft.ScanErr != "no data found" {
		t.Fatalf("unexpected draft: %+v", s.Draft)
	}
	if len(s.Draft.Images) != 1 {
		t.Fatalf("images must survive a failed scan")
	}
	// retry is allowed after a failure
	if _, err := Reduce(s, ScanStarted{}); err != nil {
		t.Fatalf("retry rejected: %v", err)
	}
}

func TestReduce_SaveRequiresDraft(t *testing.T) {
	s := State{}
	if _, err := Reduce(s, DraftSaved{}); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}

	s, _ = Reduce(s, AttachImage{Image: Attachment{ID: "a1"}})
	s, _ = Reduce(s, ScanStarted{})
	s, _ = Reduce(s, ScanSucceeded{Details: domain.MedicineDetails{MedicineName: "X"}})
	s, err := Reduce(s, DraftSaved{Stock: []domain.MedicineRecord{{ID: "MED-1"}}, Notice: "Medicine published to registry"})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Draft.Saved || len(s.Stock) != 1 {
		t.Fatalf("save not applied: %+v", s)
	}
	// images cleared only by an explicit reset
	if len(s.Draft.Images) != 1 {
		t.Fatalf("images dropped before scan-next")
	}
	s, _ = Reduce(s, DraftReset{})
	if len(s.Draft.Images) != 0 || s.Draft.Result != nil {
		t.Fatalf("reset incomplete: %+v", s.Draft)
	}
}

func TestReduce_DialogSlotsAreIndependent(t *testing.T) {
	rec := domain.MedicineRecord{ID: "MED-101"}
	s := State{}
	s, _ = Reduce(s, OpenDialog{Slot: SlotStock})
	s, _ = Reduce(s, OpenDialog{Slot: SlotWishlist})
	s, _ = Reduce(s, OpenDialog{Slot: SlotCheckout, Record: &rec})
	if !s.Dialogs.StockOpen || !s.Dialogs.WishlistOpen || s.Dialogs.Checkout == nil {
		t.Fatalf("slots should open independently: %+v", s.Dialogs)
	}

	s, _ = Reduce(s, CloseDialog{Slot: SlotWishlist})
	if !s.Dialogs.StockOpen || s.Dialogs.WishlistOpen || s.Dialogs.Checkout == nil {
		t.Fatalf("closing one slot touched another: %+v", s.Dialogs)
	}
}

func TestReduce_OrderPlaced(t *testing.T) {
	rec := domain.MedicineRecord{ID: "MED-101", MedicineName: "Amoxicillin 500mg"}
	s := State{}
	s, _ = Reduce(s, OpenDialog{Slot: SlotCheckout, Record: &rec})
	o := domain.Order{OrderID: "ORD-1", MedicineName: rec.MedicineName, Status: domain.OrderStatusInProgress}
	s, err := Reduce(s, OrderPlaced{Order: o, Stock: nil, Notice: "Purchase successful!"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Dialogs.Checkout != nil {
		t.Fatal("checkout should close")
	}
	if s.Dialogs.Summary == nil || s.Dialogs.Summary.OrderID != "ORD-1" {
		t.Fatalf("summary not opened: %+v", s.Dialogs.Summary)
	}
}

func TestFilterStock(t *testing.T) {
	stock := []domain.MedicineRecord{
		{ID: "MED-101", MedicineName: "Amoxicillin 500mg"},
		{ID: "MED-102", MedicineName: "Lisinopril 10mg"},
	}
	got := FilterStock(stock, "amox")
	if len(got) != 1 || got[0].ID != "MED-101" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if got := FilterStock(stock, ""); len(got) != 2 {
		t.Fatalf("empty query must return everything, got %+v", got)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager()
	if _, err := m.Get("alice"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	m.Start(domain.UserProfile{Username: "alice", Role: domain.RoleUser})
	if _, err := m.Dispatch("alice", SearchChanged{Query: "amox"}); err != nil {
		t.Fatal(err)
	}
	s, err := m.Get("alice")
	if err != nil || s.SearchQuery != "amox" {
		t.Fatalf("state not kept: %+v %v", s, err)
	}

	// rejected transition leaves state untouched
	if _, err := m.Dispatch("alice", ScanStarted{}); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	m.End("alice")
	if _, err := m.Get("alice"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("session should be gone, got %v", err)
	}
}
