package backup

import (
	"context"
	"strings"
	"testing"
)

func TestParseS3BucketURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantBkt   string
		wantPre   string
		errSubstr string
	}{
		{
			name:    "bucket only",
			raw:     "s3://vault-backups",
			wantBkt: "vault-backups",
			wantPre: "",
		},
		{
			name:    "bucket with prefix",
			raw:     "s3://vault-backups/vaultbloom/snapshots",
			wantBkt: "vault-backups",
			wantPre: "vaultbloom/snapshots",
		},
		{
			name:      "invalid scheme",
			raw:       "https://vault-backups/vaultbloom",
			wantErr:   true,
			errSubstr: "s3:// scheme",
		},
		{
			name:      "missing bucket",
			raw:       "s3:///vaultbloom",
			wantErr:   true,
			errSubstr: "missing bucket",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotBkt, gotPre, err := parseS3BucketURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errSubstr != "" && !strings.Contains(err.Error(), tt.errSubstr) {
					t.Fatalf("err = %q, want substring %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseS3BucketURL error: %v", err)
			}
			if gotBkt != tt.wantBkt {
				t.Fatalf("bucket = %q, want %q", gotBkt, tt.wantBkt)
			}
			if gotPre != tt.wantPre {
				t.Fatalf("prefix = %q, want %q", gotPre, tt.wantPre)
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	if got := normalizeEndpoint("", true); got != "" {
		t.Fatalf("empty endpoint = %q, want empty", got)
	}
	if got := normalizeEndpoint("http://minio:9000", true); got != "http://minio:9000" {
		t.Fatalf("explicit scheme = %q, want unchanged", got)
	}
	if got := normalizeEndpoint("s3.example.com", false); got != "http://s3.example.com" {
		t.Fatalf("no-ssl endpoint = %q, want http scheme", got)
	}
	if got := normalizeEndpoint("s3.example.com", true); got != "https://s3.example.com" {
		t.Fatalf("ssl endpoint = %q, want https scheme", got)
	}
}

func TestUploadFile_BuildsCopyCommand(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	var gotEnv []string
	u := &S3Uploader{
		bucket:    "vault-backups",
		keyPrefix: "vaultbloom/laptop",
		cfg: S3Config{
			Region:    "eu-west-1",
			AccessKey: "AK",
			SecretKey: "SK",
			Endpoint:  "minio:9000",
			UseSSL:    true,
		},
		run: func(_ context.Context, env []string, name string, args ...string) ([]byte, error) {
			gotName, gotArgs, gotEnv = name, args, env
			return nil, nil
		},
	}

	if err := u.UploadFile(context.Background(), "/tmp/vaultbloom-20250601.duckdb"); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if gotName != "aws" {
		t.Fatalf("command = %q, want aws", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "s3://vault-backups/vaultbloom/laptop/vaultbloom-20250601.duckdb") {
		t.Fatalf("args missing destination key: %q", joined)
	}
	if !strings.Contains(joined, "--endpoint-url https://minio:9000") {
		t.Fatalf("args missing endpoint: %q", joined)
	}
	env := strings.Join(gotEnv, " ")
	if !strings.Contains(env, "AWS_ACCESS_KEY_ID=AK") || !strings.Contains(env, "AWS_SECRET_ACCESS_KEY=SK") {
		t.Fatalf("env missing credentials")
	}
}

func TestNewS3Uploader_MissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewS3Uploader(S3Config{
		BucketURL: "s3://vault-backups/vaultbloom",
		Endpoint:  "s3.amazonaws.com",
		UseSSL:    true,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
