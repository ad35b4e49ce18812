package library

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	sc "github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	pages  []*s3.ListObjectsV2Output
	inputs []*s3.ListObjectsV2Input
	err    error
}

func (f *fakeLister) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Object{Key: aws.String(k)})
	}
	return out
}

func TestS3Summarizer_Pages(t *testing.T) {
	lister := &fakeLister{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              objects("libraries/a1/Movies/", "libraries/a1/Movies/one.mkv", "libraries/a1/Music/x/track.flac"),
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents: objects("libraries/a1/Movies/two.mkv", "libraries/a1/loose-file", "libraries/a1/Books/"),
		},
	}}
	s := NewS3SummarizerWithClient(lister, "media", "libraries/")

	got, err := s.SummarizeAccessFor(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Movies", "Music"}, got.Libraries)
	assert.Equal(t, 3, got.ItemCount)

	require.Len(t, lister.inputs, 2)
	assert.Equal(t, "media", aws.ToString(lister.inputs[0].Bucket))
	assert.Equal(t, "libraries/a1/", aws.ToString(lister.inputs[0].Prefix))
	assert.Equal(t, "next", aws.ToString(lister.inputs[1].ContinuationToken))
}

func TestS3Summarizer_Empty(t *testing.T) {
	s := NewS3SummarizerWithClient(&fakeLister{pages: []*s3.ListObjectsV2Output{{}}}, "media", "")

	got, err := s.SummarizeAccessFor(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, got.Libraries)
	assert.NotNil(t, got.Libraries)
	assert.Zero(t, got.ItemCount)
}

func TestS3Summarizer_Error(t *testing.T) {
	s := NewS3SummarizerWithClient(&fakeLister{err: errors.New("denied")}, "media", "")

	_, err := s.SummarizeAccessFor(context.Background(), "a1")
	assert.ErrorContains(t, err, "denied")
}

func TestNewS3Summarizer_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	cfg := &sc.Config{S3Region: "eu-central-1", S3RootUser: "u", S3RootPassword: "p", S3BaseEndpoint: "http://minio:9000", S3Bucket: "media", LibraryPrefix: "libraries/"}
	s, err := NewS3Summarizer(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "media", s.bucket)
	assert.Equal(t, "libraries/", s.prefix)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Summarizer_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := NewS3Summarizer(context.Background(), &sc.Config{})
	assert.ErrorContains(t, err, "no creds")
}

func TestNoLibraries(t *testing.T) {
	got, err := NoLibraries{}.SummarizeAccessFor(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, got.Libraries)
	assert.Empty(t, got.Libraries)
}
