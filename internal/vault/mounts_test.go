package vault

import (
	"context"
	"net/http"
	"testing"
)

func TestListMounts(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/sys/mounts", http.StatusOK, `{
		"data": {
			"secret/": {"type":"kv","description":"key/value store","config":{"default_lease_ttl":0,"max_lease_ttl":0}},
			"pki/": {"type":"pki","description":"","config":{"default_lease_ttl":2764800,"max_lease_ttl":315360000}},
			"request_id": "abc123"
		}
	}`)

	mounts, err := f.client(t).ListMounts(context.Background())
	if err != nil {
		t.Fatalf("ListMounts: %v", err)
	}
	if len(mounts) != 2 {
		t.Fatalf("mounts = %+v, want 2 entries", mounts)
	}
	// Sorted by name: pki/ before secret/.
	if mounts[0].Name != "pki/" || mounts[0].Type != "pki" {
		t.Errorf("mounts[0] = %+v", mounts[0])
	}
	if mounts[0].MaxLeaseTTL != 315360000 {
		t.Errorf("max_lease_ttl = %d", mounts[0].MaxLeaseTTL)
	}
	if mounts[1].Name != "secret/" || mounts[1].Description != "key/value store" {
		t.Errorf("mounts[1] = %+v", mounts[1])
	}
}

func TestCreateMountTranslatesKVv2(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodPost, "/v1/sys/mounts/apps", http.StatusNoContent, "")

	err := f.client(t).CreateMount(context.Background(), "apps/", MountOptions{
		Type:        "kv-v2",
		Description: "app secrets",
	})
	if err != nil {
		t.Fatalf("CreateMount: %v", err)
	}

	calls := f.recorded()
	if len(calls) != 1 {
		t.Fatalf("calls = %+v", calls)
	}
	body := calls[0].Body
	if body["type"] != "kv" {
		t.Errorf("type = %v, want kv", body["type"])
	}
	opts, ok := body["options"].(map[string]any)
	if !ok || opts["version"] != "2" {
		t.Errorf("options = %v, want version 2", body["options"])
	}
}

func TestCreateMountPassesOtherTypesThrough(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodPost, "/v1/sys/mounts/transit", http.StatusNoContent, "")

	err := f.client(t).CreateMount(context.Background(), "transit", MountOptions{Type: "transit"})
	if err != nil {
		t.Fatalf("CreateMount: %v", err)
	}

	body := f.recorded()[0].Body
	if body["type"] != "transit" {
		t.Errorf("type = %v, want transit", body["type"])
	}
	if _, present := body["options"]; present {
		t.Errorf("options should be omitted, got %v", body["options"])
	}
}

func TestDeleteMount(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodDelete, "/v1/sys/mounts/apps", http.StatusNoContent, "")

	if err := f.client(t).DeleteMount(context.Background(), "apps/"); err != nil {
		t.Fatalf("DeleteMount: %v", err)
	}
	if got := f.recorded()[0].Path; got != "/v1/sys/mounts/apps" {
		t.Errorf("path = %q", got)
	}
}
