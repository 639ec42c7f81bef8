package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/idefi-ai/agents/lib/prefs"
	"github.com/idefi-ai/agents/lib/store"
)

func TestSettings(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, err := m.LoadSettings(ctx, "uid"); !errors.Is(err, store.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}

	if err := m.SaveSettings(ctx, store.UserSettings{}); !errors.Is(err, store.ErrNoUser) {
		t.Errorf("expected ErrNoUser, got %v", err)
	}

	s := store.UserSettings{UserID: "uid", WalletAddress: "0xabc", Preferences: prefs.Preferences{Agent1: true}}
	if err := m.SaveSettings(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := m.LoadSettings(ctx, "uid")
	if err != nil || got != s {
		t.Errorf("LoadSettings = %+v, %v", got, err)
	}
}

func TestInsights(t *testing.T) {
	ctx := context.Background()
	m := New()

	_ = m.AddInsight(ctx, store.Insight{UserAddress: "0xa", Insights: "second", Timestamp: 20})
	_ = m.AddInsight(ctx, store.Insight{UserAddress: "0xb", Insights: "other", Timestamp: 5})
	_ = m.AddInsight(ctx, store.Insight{UserAddress: "0xa", Insights: "first", Timestamp: 10})

	got, err := m.GetInsights(ctx, "0xa")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0].Insights != "first" || got[1].Insights != "second" {
		t.Errorf("unexpected insights %+v", got)
	}

	none, _ := m.GetInsights(ctx, "0xc")
	if none == nil || len(none) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", none)
	}
}

func TestAddresses(t *testing.T) {
	ctx := context.Background()
	m := New()

	id1, err := m.AddAddress(ctx, store.Address{Addr: "0xa", Name: "uid"}, "mainNet")
	if err != nil {
		t.Fatal(err)
	}

	id2, _ := m.AddAddress(ctx, store.Address{Addr: "0xa", Name: "uid"}, "mainNet")
	if string(id1) != string(id2) {
		t.Errorf("re-adding an address should return the same id")
	}

	_, _ = m.AddAddress(ctx, store.Address{Addr: "0xb"}, "sepolia")

	all, _ := m.GetAddresses(ctx, nil)
	if len(all) != 2 || all[0].Net != "mainNet" || len(all[0].Addr) != 1 {
		t.Errorf("unexpected addresses %+v", all)
	}

	one, _ := m.GetAddresses(ctx, []string{"sepolia"})
	if len(one) != 1 || one[0].Addr[0].Addr != "0xb" {
		t.Errorf("unexpected filtered addresses %+v", one)
	}

	if err = m.RemoveAddress(ctx, store.Address{Addr: "0xa", Name: "uid"}, "mainNet"); err != nil {
		t.Error(err)
	}

	if err = m.RemoveAddress(ctx, store.Address{Addr: "0xa", Name: "uid"}, "mainNet"); !errors.Is(err, store.ErrAddrNotFound) {
		t.Errorf("expected ErrAddrNotFound, got %v", err)
	}
}

func TestAddressesPerOwner(t *testing.T) {
	ctx := context.Background()
	m := New()

	alice, _ := m.AddAddress(ctx, store.Address{Addr: "0xSAME", Name: "alice"}, "mainNet")
	bob, _ := m.AddAddress(ctx, store.Address{Addr: "0xSAME", Name: "bob"}, "mainNet")

	if string(alice) == string(bob) {
		t.Error("each owner should get its own entry")
	}

	all, _ := m.GetAddresses(ctx, []string{"mainNet"})
	if len(all) != 1 || len(all[0].Addr) != 2 || all[0].Addr[0].Name != "alice" || all[0].Addr[1].Name != "bob" {
		t.Errorf("unexpected addresses %+v", all)
	}

	// removing bob's entry leaves alice's in place
	if err := m.RemoveAddress(ctx, store.Address{Addr: "0xSAME", Name: "bob"}, "mainNet"); err != nil {
		t.Error(err)
	}

	all, _ = m.GetAddresses(ctx, []string{"mainNet"})
	if len(all[0].Addr) != 1 || all[0].Addr[0].Name != "alice" {
		t.Errorf("unexpected addresses after removal %+v", all)
	}

	if err := m.RemoveAddress(ctx, store.Address{Addr: "0xSAME", Name: "bob"}, "mainNet"); !errors.Is(err, store.ErrAddrNotFound) {
		t.Errorf("expected ErrAddrNotFound, got %v", err)
	}
}

func TestOutbox(t *testing.T) {
	m := New()
	_ = m.QueueMail(context.Background(), store.OutboxMail{To: "a@b.c", Message: store.MailMessage{Subject: "s"}})

	if out := m.Outbox(); len(out) != 1 || out[0].To != "a@b.c" {
		t.Errorf("unexpected outbox %+v", out)
	}
}
