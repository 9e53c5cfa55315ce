package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/artifacts"
)

// fakeClient is an in-memory bucket with small pages.
type fakeClient struct {
	mu       sync.Mutex
	objects  map[string]int64
	pageSize int
	deletes  []int
	failKeys map[string]bool
	headErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string]int64), pageSize: 2, failKeys: make(map[string]bool)}
}

func (f *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := min(start+f.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(f.objects[k])})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes = append(f.deletes, len(in.Delete.Objects))
	out := &s3.DeleteObjectsOutput{}
	for _, o := range in.Delete.Objects {
		k := aws.ToString(o.Key)
		if f.failKeys[k] {
			out.Errors = append(out.Errors, types.Error{Key: o.Key, Message: aws.String("AccessDenied")})
			continue
		}
		delete(f.objects, k)
	}
	return out, nil
}

func (f *fakeClient) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

var loc = artifacts.Locator{Pipeline: "build", PipelineCounter: 2, Stage: "compile", StageCounter: 1}

func newTestStore(client *fakeClient) *Store {
	return New(client, artifacts.S3Config{Bucket: "ci", Prefix: "ci/"}, artifacts.DefaultPreserve)
}

func TestDeleteStage(t *testing.T) {
	client := newFakeClient()
	base := "ci/pipelines/build/2/compile/1/"
	client.objects[base+"app.bin"] = 100
	client.objects[base+"lib/a.so"] = 20
	client.objects[base+"lib/b.so"] = 30
	client.objects[base+"cruise-output/console.log"] = 5
	client.objects["ci/pipelines/build/2/compile/10/other"] = 7

	freed, err := newTestStore(client).DeleteStage(t.Context(), loc)
	require.NoError(t, err)
	assert.Equal(t, int64(150), freed)

	assert.Contains(t, client.objects, base+"cruise-output/console.log")
	assert.Contains(t, client.objects, "ci/pipelines/build/2/compile/10/other", "sibling stage must survive")
	assert.Len(t, client.objects, 2)
}

func TestDeleteStageBatchesAtLimit(t *testing.T) {
	client := newFakeClient()
	client.pageSize = 400
	for i := 0; i < maxDeleteBatch+5; i++ {
		client.objects[fmt.Sprintf("ci/%s/obj-%04d", loc.Path(), i)] = 1
	}

	freed, err := newTestStore(client).DeleteStage(t.Context(), loc)
	require.NoError(t, err)
	assert.Equal(t, int64(maxDeleteBatch+5), freed)
	assert.Equal(t, []int{maxDeleteBatch, 5}, client.deletes)
	assert.Empty(t, client.objects)
}

func TestDeleteStagePartialFailure(t *testing.T) {
	client := newFakeClient()
	base := "ci/" + loc.Path() + "/"
	client.objects[base+"a"] = 10
	client.objects[base+"b"] = 20
	client.failKeys[base+"b"] = true

	freed, err := newTestStore(client).DeleteStage(t.Context(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Equal(t, int64(10), freed)
}

func TestDeleteStageMissingIsNoop(t *testing.T) {
	client := newFakeClient()
	freed, err := newTestStore(client).DeleteStage(t.Context(), loc)
	require.NoError(t, err)
	assert.Zero(t, freed)
	assert.Empty(t, client.deletes)
}

func TestDeleteStageRejectsEscapingLocator(t *testing.T) {
	client := newFakeClient()
	bad := artifacts.Locator{Pipeline: "..", PipelineCounter: 1, Stage: "build", StageCounter: 1}
	_, err := newTestStore(client).DeleteStage(t.Context(), bad)
	require.ErrorIs(t, err, artifacts.ErrInvalidLocator)
	assert.Empty(t, client.deletes)
}

func TestQuotaProbe(t *testing.T) {
	client := newFakeClient()
	client.objects["ci/a"] = 300
	client.objects["ci/b"] = 200
	client.objects["elsewhere/c"] = 10_000
	store := newTestStore(client)

	free, err := NewQuotaProbe(store, 1000).AvailableBytes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(500), free)

	free, err = NewQuotaProbe(store, 400).AvailableBytes(t.Context())
	require.NoError(t, err)
	assert.Zero(t, free, "over quota reports zero")
}

func TestHealthcheckAndClose(t *testing.T) {
	client := newFakeClient()
	store := newTestStore(client)
	require.NoError(t, store.Healthcheck(t.Context()))

	client.headErr = errors.New("403")
	assert.Error(t, store.Healthcheck(t.Context()))

	require.NoError(t, store.Close())
	_, err := store.DeleteStage(t.Context(), loc)
	assert.ErrorIs(t, err, artifacts.ErrStoreClosed)
}
