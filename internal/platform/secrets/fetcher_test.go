package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubSecretClient struct {
	values map[string]string
	err    error
	calls  int
}

func (s *stubSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret version not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubSecretClient) Close() error { return nil }

func TestResolveFetchesRemoteAndCaches(t *testing.T) {
	client := &stubSecretClient{values: map[string]string{
		"projects/proj-1/secrets/jwt-access/versions/latest": "super-secret",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		value, err := fetcher.Resolve(context.Background(), "secret://jwt-access")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if value != "super-secret" {
			t.Fatalf("unexpected value %q", value)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected a single remote call, got %d", client.calls)
	}
}

func TestResolveHonoursVersionAndProjectOverrides(t *testing.T) {
	client := &stubSecretClient{values: map[string]string{
		"projects/other/secrets/stripe/versions/4": "sk_test_123",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "secret://stripe?version=4&project=other")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "sk_test_123" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestResolveFallsBackToLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets.local")
	contents := "# local secrets\nsecret://jwt-access=dev-secret\nsm://stripe=sk_dev\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}

	client := &stubSecretClient{err: status.Error(codes.PermissionDenied, "denied")}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(path),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "secret://jwt-access")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "dev-secret" {
		t.Fatalf("unexpected value %q", value)
	}

	value, err = fetcher.Resolve(context.Background(), "sm://stripe")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "sk_dev" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestResolveReportsMissingSecret(t *testing.T) {
	client := &stubSecretClient{err: status.Error(codes.NotFound, "missing")}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(filepath.Join(t.TempDir(), "missing")),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	if _, err := fetcher.Resolve(context.Background(), "secret://nope"); err == nil {
		t.Fatal("expected error for unresolvable secret")
	}
}

func TestResolveRejectsBadReferences(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(&stubSecretClient{}),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	for _, ref := range []string{"", "http://nope", "secret://"} {
		if _, err := fetcher.Resolve(context.Background(), ref); err == nil {
			t.Fatalf("expected error for reference %q", ref)
		}
	}
}

func TestInvalidateClearsCache(t *testing.T) {
	client := &stubSecretClient{values: map[string]string{
		"projects/proj-1/secrets/jwt-access/versions/latest": "v1",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	if _, err := fetcher.Resolve(context.Background(), "secret://jwt-access"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	fetcher.Invalidate("secret://jwt-access")
	if _, err := fetcher.Resolve(context.Background(), "secret://jwt-access"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 remote calls after invalidation, got %d", client.calls)
	}
}

func TestFallbackErrorDoesNotMaskRemote(t *testing.T) {
	client := &stubSecretClient{err: errors.New("boom")}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("proj-1"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	if _, err := fetcher.Resolve(context.Background(), "secret://jwt-access"); err == nil {
		t.Fatal("expected hard failure for non-fallback remote error")
	}
}
