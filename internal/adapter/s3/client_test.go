package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(config.StorageConfig{})
	assert.Error(t, err)
}

// Requires Docker. Set INTEGRATION_TEST=true to run.
func TestIntegrationOpen(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(context.Background())

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	client, err := NewClient(config.StorageConfig{
		Endpoint:  fmt.Sprintf("%s:%s", host, port.Port()),
		Region:    "us-east-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	require.NoError(t, client.client.MakeBucket(ctx, "photos", minio.MakeBucketOptions{}))
	content := []byte("not really a jpeg")
	_, err = client.client.PutObject(ctx, "photos", "2024/a.jpg", bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)

	rc, err := client.Open(ctx, "photos", "2024/a.jpg")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = client.Open(ctx, "photos", "missing.jpg")
	assert.Error(t, err)
}
