package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"journal-backend/internal/datekey"
)

func testService() *S3Service {
	return newS3Service(aws.Config{
		Region:      "ap-northeast-2",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}, "journal-bucket", time.Minute)
}

func TestObjectKey(t *testing.T) {
	day := datekey.MustParse("2024-03-10")

	key, err := ObjectKey("u1", day, "image/PNG")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(key, "journal/u1/2024-03-10/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("key = %q", key)
	}
	if _, err := ObjectKey("u1", day, "application/pdf"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("pdf accepted: %v", err)
	}
}

func TestOwnsKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"journal/u1/2024-03-10/a.png", true},
		{"journal/u2/2024-03-10/a.png", false},
		{"journal/u1/../u2/a.png", false},
		{"journal/u10/2024-03-10/a.png", false},
		{"other/u1/a.png", false},
	}
	for _, tt := range tests {
		if got := OwnsKey("u1", tt.key); got != tt.want {
			t.Errorf("OwnsKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestPresignWithoutNetwork(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	up, err := svc.GenerateUploadURL(ctx, "u1", datekey.MustParse("2024-03-10"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(up.URL, "journal-bucket") || !strings.Contains(up.URL, "X-Amz-Signature") {
		t.Errorf("upload url = %s", up.URL)
	}

	get, err := svc.GetFileURL(ctx, "u1", up.Key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(get, "X-Amz-Expires=60") {
		t.Errorf("download url = %s", get)
	}

	if _, err := svc.GetFileURL(ctx, "u2", up.Key); !errors.Is(err, ErrForeignKey) {
		t.Errorf("foreign key: %v", err)
	}
}
