package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/cen"
	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
	sc "github.com/dmitrijs2005/cenkeeper/internal/server/config"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrBadKeyLength reports a submitted rolling key of the wrong size.
var ErrBadKeyLength = errors.New("bad rolling key length")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// DisclosureService implements the disclosure side of the system: accepting
// report submissions with their rolling keys, serving the key feed, and
// resolving matched keys back to reports.
type DisclosureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewDisclosureService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *DisclosureService {
	return &DisclosureService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("reports/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// SubmitReport stores the report and publishes its rolling keys atomically:
// either the report and every key land in the feed, or nothing does. When
// withAttachment is set, a presigned PUT URL for the attachment is returned.
func (s *DisclosureService) SubmitReport(ctx context.Context, deviceID string, report *models.Report,
	keyValues [][]byte, withAttachment bool) (string, error) {

	for _, v := range keyValues {
		if len(v) != cen.SecretLength {
			return "", ErrBadKeyLength
		}
	}

	var putURL string
	if withAttachment {
		storageKey, url, err := s.GetPresignedPutUrl(ctx)
		if err != nil {
			return "", fmt.Errorf("presign attachment: %v", err)
		}
		report.StorageKey = storageKey
		putURL = url
	}

	report.DeviceID = deviceID

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		reportRepo := s.repomanager.Reports(tx)
		keyRepo := s.repomanager.Keys(tx)

		if err := reportRepo.Create(ctx, report); err != nil {
			return err
		}
		for _, v := range keyValues {
			if err := keyRepo.Create(ctx, v, report.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error storing report: %v", err)
	}

	return putURL, nil
}

// ListKeysSince returns a page of the disclosure feed after the given
// checkpoint plus the checkpoint to resume from. With no new keys the
// incoming checkpoint is echoed back unchanged.
func (s *DisclosureService) ListKeysSince(ctx context.Context, since uint64) ([]models.DisclosedKey, uint64, error) {
	repo := s.repomanager.Keys(s.db)

	keys, err := repo.ListSince(ctx, since, s.config.KeyPageSize)
	if err != nil {
		return nil, 0, common.ErrorInternal
	}

	checkpoint := since
	if len(keys) > 0 {
		checkpoint = keys[len(keys)-1].Seq
	}
	return keys, checkpoint, nil
}

// GetReportByKey resolves a disclosed key value to its report. The second
// return value is a presigned GET URL for the attachment, empty when the
// report has none.
func (s *DisclosureService) GetReportByKey(ctx context.Context, value []byte) (*models.Report, string, error) {
	repo := s.repomanager.Reports(s.db)

	report, err := repo.GetByKeyValue(ctx, value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorNotFound
		}
		return nil, "", common.ErrorInternal
	}

	var attachmentURL string
	if report.StorageKey != "" {
		attachmentURL, err = s.GetPresignedGetUrl(ctx, report.StorageKey)
		if err != nil {
			return nil, "", fmt.Errorf("presign attachment: %v", err)
		}
	}

	return report, attachmentURL, nil
}

func (s *DisclosureService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *DisclosureService) GetPresignedPutUrl(ctx context.Context) (string, string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *DisclosureService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
