package vault

import (
	"context"
	"net/http"
	"reflect"
	"testing"
)

func TestListSecretsUsesListVerb(t *testing.T) {
	f := newFakeVault(t)
	f.respond(methodList, "/v1/secret/metadata/apps", http.StatusOK,
		`{"data":{"keys":["config","db/"]}}`)

	keys, err := f.client(t).ListSecrets(context.Background(), "secret/", "apps/")
	if err != nil {
		t.Fatalf("ListSecrets: %v", err)
	}
	if want := []string{"config", "db/"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	calls := f.recorded()
	if len(calls) != 1 || calls[0].Method != methodList {
		t.Fatalf("expected one LIST call, got %+v", calls)
	}
}

func TestListSecretsMissingPathIsEmpty(t *testing.T) {
	f := newFakeVault(t)

	keys, err := f.client(t).ListSecrets(context.Background(), "secret", "no/such/path")
	if err != nil {
		t.Fatalf("ListSecrets: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want empty", keys)
	}
}

func TestListSecretsAtMountRoot(t *testing.T) {
	f := newFakeVault(t)
	f.respond(methodList, "/v1/secret/metadata", http.StatusOK,
		`{"data":{"keys":["top"]}}`)

	keys, err := f.client(t).ListSecrets(context.Background(), "secret", "")
	if err != nil {
		t.Fatalf("ListSecrets: %v", err)
	}
	if want := []string{"top"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestReadSecretUnwrapsNestedData(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/secret/data/apps/config", http.StatusOK,
		`{"data":{"data":{"user":"admin","port":8080},"metadata":{"version":3,"created_time":"2026-01-01T00:00:00Z","deletion_time":"","destroyed":false}}}`)

	secret, err := f.client(t).ReadSecret(context.Background(), "secret", "apps/config")
	if err != nil {
		t.Fatalf("ReadSecret: %v", err)
	}
	if secret.Data["user"] != "admin" {
		t.Errorf("data = %v", secret.Data)
	}
	if secret.Version.Version != 3 {
		t.Errorf("version = %d, want 3", secret.Version.Version)
	}
}

func TestWriteSecretSkipsUndeleteWhenCurrentVersionLive(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/secret/metadata/apps/config", http.StatusOK,
		`{"data":{"current_version":2,"versions":{"1":{"deletion_time":"2026-01-01T00:00:00Z"},"2":{"deletion_time":""}}}}`)
	f.respond(http.MethodPost, "/v1/secret/data/apps/config", http.StatusOK,
		`{"data":{"version":3,"created_time":"2026-02-01T00:00:00Z"}}`)

	version, err := f.client(t).WriteSecret(context.Background(), "secret", "apps/config", SecretData{"k": "v"})
	if err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	if version.Version != 3 {
		t.Errorf("version = %d, want 3", version.Version)
	}

	for _, call := range f.recorded() {
		if call.Path == "/v1/secret/undelete/apps/config" {
			t.Error("undelete must not be called when the current version is live")
		}
	}
}

func TestWriteSecretUndeletesSoftDeletedVersionFirst(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/secret/metadata/apps/config", http.StatusOK,
		`{"data":{"current_version":2,"versions":{"2":{"deletion_time":"2026-01-15T10:00:00Z"}}}}`)
	f.respond(http.MethodPost, "/v1/secret/undelete/apps/config", http.StatusOK, `{}`)
	f.respond(http.MethodPost, "/v1/secret/data/apps/config", http.StatusOK,
		`{"data":{"version":3}}`)

	if _, err := f.client(t).WriteSecret(context.Background(), "secret", "apps/config", SecretData{"k": "v"}); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}

	var undeletes, writes int
	var undeleteIdx, writeIdx int
	for i, call := range f.recorded() {
		switch call.Path {
		case "/v1/secret/undelete/apps/config":
			undeletes++
			undeleteIdx = i
			versions, ok := call.Body["versions"].([]any)
			if !ok || len(versions) != 1 || versions[0] != float64(2) {
				t.Errorf("undelete body = %v, want versions [2]", call.Body)
			}
		case "/v1/secret/data/apps/config":
			if call.Method == http.MethodPost {
				writes++
				writeIdx = i
			}
		}
	}
	if undeletes != 1 {
		t.Fatalf("undelete calls = %d, want exactly 1", undeletes)
	}
	if writes != 1 {
		t.Fatalf("write calls = %d, want exactly 1", writes)
	}
	if undeleteIdx > writeIdx {
		t.Error("undelete must precede the write")
	}
}

func TestWriteSecretProceedsWhenMetadataMissing(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodPost, "/v1/secret/data/fresh", http.StatusOK,
		`{"data":{"version":1}}`)

	version, err := f.client(t).WriteSecret(context.Background(), "secret", "fresh", SecretData{"k": "v"})
	if err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	if version.Version != 1 {
		t.Errorf("version = %d, want 1", version.Version)
	}
}

func TestWriteSecretIgnoresUndeleteFailure(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/secret/metadata/p", http.StatusOK,
		`{"data":{"current_version":1,"versions":{"1":{"deletion_time":"2026-01-01T00:00:00Z"}}}}`)
	f.respond(http.MethodPost, "/v1/secret/undelete/p", http.StatusInternalServerError,
		`{"errors":["boom"]}`)
	f.respond(http.MethodPost, "/v1/secret/data/p", http.StatusOK, `{"data":{"version":2}}`)

	if _, err := f.client(t).WriteSecret(context.Background(), "secret", "p", SecretData{"k": "v"}); err != nil {
		t.Fatalf("WriteSecret should ignore undelete failure: %v", err)
	}
}

func TestDeleteSecret(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodDelete, "/v1/secret/data/old", http.StatusNoContent, "")

	if err := f.client(t).DeleteSecret(context.Background(), "secret", "old"); err != nil {
		t.Fatalf("DeleteSecret: %v", err)
	}
}
