package library

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Summarizer reads the catalog from an object store laid out as
//
//	<prefix><account id>/<library>/<item...>
//
// Every first-level directory under the account is a library and every
// object below it is an item.
type S3Summarizer struct {
	client s3.ListObjectsV2APIClient
	bucket string
	prefix string
}

var _ Summarizer = (*S3Summarizer)(nil)

// NewS3Summarizer builds an S3 client from the server configuration.
func NewS3Summarizer(ctx context.Context, cfg *sc.Config) (*S3Summarizer, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return NewS3SummarizerWithClient(client, cfg.S3Bucket, cfg.LibraryPrefix), nil
}

func NewS3SummarizerWithClient(client s3.ListObjectsV2APIClient, bucket, prefix string) *S3Summarizer {
	return &S3Summarizer{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Summarizer) SummarizeAccessFor(ctx context.Context, accountID string) (models.LibrarySummary, error) {
	root := s.prefix + accountID + "/"
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(root),
	})

	libs := make(map[string]struct{})
	summary := models.LibrarySummary{Libraries: []string{}}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return models.LibrarySummary{}, fmt.Errorf("list libraries of %s: %w", accountID, err)
		}
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(aws.ToString(obj.Key), root)
			lib, rest, nested := strings.Cut(rel, "/")
			if lib == "" || !nested {
				continue
			}
			libs[lib] = struct{}{}
			// directory markers are not items
			if rest != "" && !strings.HasSuffix(rest, "/") {
				summary.ItemCount++
			}
		}
	}

	for lib := range libs {
		summary.Libraries = append(summary.Libraries, lib)
	}
	sort.Strings(summary.Libraries)
	return summary, nil
}
