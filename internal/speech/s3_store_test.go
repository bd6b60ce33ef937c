package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3Client records puts and serves gets from memory.
type mockS3Client struct {
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3Client()
	store, err := NewS3Store(mock, "voice-clips")
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	if err := store.Put(ctx, "clip.mp3", []byte("mp3-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := mock.objects["audio/v1/clip.mp3"]; !ok {
		t.Fatalf("Put: expected key audio/v1/clip.mp3, have %v", mock.objects)
	}

	data, err := store.Get(ctx, "clip.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("Get: got %q", data)
	}

	if err := store.Delete(ctx, "clip.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "clip.mp3"); !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("Get after Delete: got %v, want ErrAudioNotFound", err)
	}
}

func TestS3StoreMissingKey(t *testing.T) {
	store, err := NewS3Store(newMockS3Client(), "voice-clips")
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	if _, err := store.Get(context.Background(), "nope.mp3"); !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("Get: got %v, want ErrAudioNotFound", err)
	}
}

func TestS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(newMockS3Client(), ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, err := NewS3Store(nil, "voice-clips"); err == nil {
		t.Fatal("expected error for nil client")
	}
}
