package helpers

import (
	"bytes"
	"fmt"

	"bitbucket.org/vecpay/backend/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

// AddFileToS3 uploads a generated document and returns its public URL.
func AddFileToS3(ctx *config.AppContext, buffer *bytes.Buffer, key string) (string, error) {
	conf := ctx.Config.AwsS3

	_, err := s3.New(ctx.AwsS3).PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(conf.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buffer.Bytes()),
		ContentLength: aws.Int64(int64(buffer.Len())),
		ContentType:   aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", conf.S3Url, key), nil
}
