package usecase

import (
	"context"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/infra/paypack"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// Actor is the authenticated caller.
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ImageFile is an uploaded file already read into memory.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadedImage struct {
	URL      string
	PublicID string
}

type ImageUploader interface {
	Upload(ctx context.Context, img ImageFile) (UploadedImage, error)
	Delete(ctx context.Context, publicID string) error
}

// EventPublisher delivers domain events keyed for per-order ordering.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// PaymentGateway is the provider surface the payment flow depends on.
type PaymentGateway interface {
	Token(ctx context.Context) (string, error)
	InitiatePayment(ctx context.Context, in paypack.CashIn) (paypack.Ack, error)
	QueryTransaction(ctx context.Context, reference string) (paypack.TransactionStatus, error)
}
