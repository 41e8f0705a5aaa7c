package layout

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
)

// objectGetter is the slice of the S3 client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// loadFromS3 fetches the document named by an s3://bucket/key URL.
func (l *Loader) loadFromS3(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := parseS3URL(source)
	if err != nil {
		return nil, err
	}

	client := l.s3
	if client == nil {
		client, err = l.newS3Client(ctx)
		if err != nil {
			return nil, jfserrors.NewLayoutUnreadable(source, err)
		}
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, jfserrors.NewLayoutUnreadable(source, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, jfserrors.NewLayoutUnreadable(source, err)
	}
	return data, nil
}

// newS3Client builds an S3 client from the layout credentials. Static
// credentials take precedence when both keys are set; otherwise the
// default credential chain applies.
func (l *Loader) newS3Client(ctx context.Context) (objectGetter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if l.cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(l.cfg.AWSRegion))
	}
	if l.cfg.AWSAccessKey != "" && l.cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(l.cfg.AWSAccessKey, l.cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if l.cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(l.cfg.AWSEndpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// parseS3URL splits s3://bucket/key into its parts.
func parseS3URL(source string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(source, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", jfserrors.NewLayoutUnreadable(source,
			fmt.Errorf("s3 source must have the form s3://bucket/key"))
	}
	return bucket, key, nil
}
