package builtin

import (
	"context"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// fakeS3 stores objects in a map and scripts failures per operation.
type fakeS3 struct {
	objects   map[string]string // key -> content type
	putErr    error
	deleteErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]string)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.objects[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, assert.AnError
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) keys() []string {
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newS3Context(t *testing.T) *publish.Context {
	pctx := newPublishContext(t, map[string]string{
		"dist/app-linux":     "binary bytes",
		"dist/checksums.txt": "abc  app-linux\n",
	})
	pctx.Config.Publishers.S3.Bucket = "releases"
	pctx.Config.Publishers.S3.Prefix = "demo"
	pctx.Config.Publishers.S3.Artifacts = []string{"dist/*"}
	return pctx
}

func TestS3ShouldPublish(t *testing.T) {
	p := NewS3(newFakeS3())

	t.Run("requires a bucket", func(t *testing.T) {
		pctx := newPublishContext(t, nil)
		assert.False(t, p.ShouldPublish(context.Background(), pctx))
	})

	t.Run("applies when configured", func(t *testing.T) {
		assert.True(t, p.ShouldPublish(context.Background(), newS3Context(t)))
	})
}

func TestS3Publish(t *testing.T) {
	t.Run("uploads under the release prefix", func(t *testing.T) {
		api := newFakeS3()
		pctx := newS3Context(t)

		result := NewS3(api).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Equal(t, []string{
			"demo/v1.2.3/app-linux",
			"demo/v1.2.3/checksums.txt",
		}, api.keys())
		assert.NotEmpty(t, api.objects["demo/v1.2.3/checksums.txt"])
	})

	t.Run("upload failure surfaces", func(t *testing.T) {
		api := newFakeS3()
		api.putErr = assert.AnError
		pctx := newS3Context(t)

		result := NewS3(api).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusFailed, result.Status)
	})

	t.Run("dry run uploads nothing", func(t *testing.T) {
		api := newFakeS3()
		pctx := newS3Context(t)
		pctx.DryRun = true

		result := NewS3(api).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Empty(t, api.objects)
	})
}

func TestS3Verify(t *testing.T) {
	api := newFakeS3()
	pctx := newS3Context(t)
	p := NewS3(api)

	assert.False(t, p.Verify(context.Background(), pctx), "nothing uploaded yet")

	require.Equal(t, publish.StatusSuccess, p.Publish(context.Background(), pctx).Status)
	assert.True(t, p.Verify(context.Background(), pctx))
}

func TestS3Rollback(t *testing.T) {
	api := newFakeS3()
	pctx := newS3Context(t)
	p := NewS3(api)

	require.True(t, p.CanRollback())
	require.Equal(t, publish.StatusSuccess, p.Publish(context.Background(), pctx).Status)

	result := p.Rollback(context.Background(), pctx)

	assert.Equal(t, publish.StatusSuccess, result.Status)
	assert.Empty(t, api.objects)
}
