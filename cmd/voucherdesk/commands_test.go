package main

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/gateway"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/utils"
)

func TestParseAssignment(t *testing.T) {
	cases := []struct {
		in    string
		path  string
		value any
		fails bool
	}{
		{in: "vendor_id=3", path: "vendor_id", value: "3"},
		{in: "items.0.quantity= 2.5", path: "items.0.quantity", value: " 2.5"},
		{in: "notes=a=b", path: "notes", value: "a=b"},
		{in: "vendor_id=null", path: "vendor_id", value: nil},
		{in: "is_paid=true", path: "is_paid", value: true},
		{in: `shipping_info={"city":"Pune","pin":411001}`, path: "shipping_info", value: map[string]any{"city": "Pune", "pin": json.Number("411001")}},
		{in: "=5", fails: true},
		{in: "notes", fails: true},
		{in: "meta={broken", fails: true},
	}
	for _, c := range cases {
		path, value, err := parseAssignment(c.in)
		if c.fails {
			if err == nil {
				t.Fatalf("%q: expected an error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if path != c.path || !reflect.DeepEqual(value, c.value) {
			t.Fatalf("%q: got (%q, %#v), want (%q, %#v)", c.in, path, value, c.path, c.value)
		}
	}
}

func TestAssignmentsFlag(t *testing.T) {
	var sets assignments
	if err := sets.Set("date=2024-04-01"); err != nil {
		t.Fatal(err)
	}
	if err := sets.Set("no-equals"); err == nil {
		t.Fatal("expected an error for a value without '='")
	}
	if got := sets.String(); got != "date=2024-04-01" {
		t.Fatalf("String() = %q", got)
	}
}

func TestSearchFilter(t *testing.T) {
	f, err := searchFilter("acme", "2024-04-01", "")
	if err != nil {
		t.Fatal(err)
	}
	if f.Term != "acme" || !f.From.Equal(models.NewDate(2024, 4, 1).Time) || !f.To.IsZero() {
		t.Fatalf("unexpected filter %+v", f)
	}
	if _, err := searchFilter("", "01/04/2024", ""); err == nil {
		t.Fatal("expected an error for an unparseable date")
	}
}

func TestConfigForRequiresType(t *testing.T) {
	if _, err := configFor(" "); !errors.Is(err, errUsage) {
		t.Fatalf("a blank type should be a usage error, got %v", err)
	}
	_, err := configFor("no-such-voucher")
	if !errors.Is(err, errUsage) || !errors.Is(err, models.ErrUnknownVoucherType) {
		t.Fatalf("an unknown type should be a usage error, got %v", err)
	}
	cfg, err := configFor(models.Keys()[0])
	if err != nil || cfg.Key != models.Keys()[0] {
		t.Fatalf("configFor(%q) = %+v, %v", models.Keys()[0], cfg, err)
	}
}

func TestIdentityFromSessionToken(t *testing.T) {
	token, err := utils.JwtGenerate("clerk@example.com", "accountant", time.Hour, []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	session := gateway.NewSession()
	session.SetCredentials(token, "")
	a := &app{client: gateway.New(config.Settings{APIBaseURL: "http://127.0.0.1:1"}, session)}

	ctx := a.identity(context.Background())
	if user, _ := utils.GetUsernameFromContext(ctx); user != "clerk@example.com" {
		t.Fatalf("username = %q", user)
	}
	if role, _ := utils.GetUserRoleFromContext(ctx); role != "accountant" {
		t.Fatalf("role = %q", role)
	}

	session.SetCredentials(token, "admin")
	if role, _ := utils.GetUserRoleFromContext(a.identity(context.Background())); role != "admin" {
		t.Fatalf("session role should win, got %q", role)
	}

	session.Clear()
	if _, ok := utils.GetUsernameFromContext(a.identity(context.Background())); ok {
		t.Fatal("no identity expected without a token")
	}
}
