package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver copies every ingested batch into the data lake bucket as JSON.
type Archiver struct {
	svc    objectPutter
	bucket string
}

func NewArchiver(cfg aws.Config, bucket string) *Archiver {
	return &Archiver{svc: s3.NewFromConfig(cfg), bucket: bucket}
}

type archivedBatch struct {
	UserID   int64            `json:"user_id"`
	Readings []domain.Reading `json:"readings"`
}

// archiveKey groups batches per user and day: readings/<user>/<YYYY-MM-DD>/<first id>-<count>.json
func archiveKey(userID int64, readings []domain.Reading) string {
	day := readings[0].Timestamp
	if i := strings.IndexByte(day, 'T'); i > 0 {
		day = day[:i]
	}
	return fmt.Sprintf("readings/%d/%s/%d-%d.json", userID, day, readings[0].ID, len(readings))
}

func (a *Archiver) ReadingsIngested(ctx context.Context, owner *domain.User, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	data, err := json.Marshal(archivedBatch{UserID: owner.ID, Readings: readings})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(archiveKey(owner.ID, readings)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if _, err := a.svc.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload data file: %w", err)
	}
	return nil
}
