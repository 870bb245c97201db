package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns validator output into a 400 listing the failing
// fields by their JSON-ish names.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Namespace())] = fe.Tag()
	}
	return apperr.Validation("request validation failed").WithDetail("fields", fields)
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

type AnalyzeRequest struct {
	Content     string `json:"content" validate:"required,max=5000"`
	Sender      string `json:"sender" validate:"max=100"`
	SenderPhone string `json:"sender_phone" validate:"max=32"`
	Source      string `json:"source" validate:"omitempty,oneof=sms manual api"`
}

func (r *AnalyzeRequest) Validate() error { return check(r) }

func (r *AnalyzeRequest) Input() service.AnalyzeInput {
	return service.AnalyzeInput{
		Content:     r.Content,
		Sender:      r.Sender,
		SenderPhone: r.SenderPhone,
		Source:      domain.Source(r.Source),
	}
}

type BulkAnalyzeRequest struct {
	Messages []AnalyzeRequest `json:"messages" validate:"required,min=1,max=50,dive"`
}

func (r *BulkAnalyzeRequest) Validate() error { return check(r) }

type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=correct incorrect unsure"`
}

func (r *FeedbackRequest) Validate() error { return check(r) }

type CreateReportRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=32"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2,alpha"`
	Category    string `json:"category" validate:"required,max=32"`
	Reason      string `json:"reason" validate:"max=500"`
	CallerName  string `json:"caller_name" validate:"max=100"`
}

func (r *CreateReportRequest) Validate() error {
	if err := check(r); err != nil {
		return err
	}
	if _, ok := domain.ParseReportCategory(r.Category); !ok {
		return apperr.InvalidInput("category", "unknown report category")
	}
	return nil
}

type LookupRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=32"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2,alpha"`
}

func (r *LookupRequest) Validate() error { return check(r) }

type BulkLookupRequest struct {
	Numbers []LookupRequest `json:"numbers" validate:"required,min=1,max=50,dive"`
}

func (r *BulkLookupRequest) Validate() error { return check(r) }

type ListEntryRequest struct {
	Value string `json:"value" validate:"required,max=100"`
	Type  string `json:"type" validate:"omitempty,oneof=phone sender keyword"`
	Note  string `json:"note" validate:"max=200"`
}

func (r *ListEntryRequest) Validate() error { return check(r) }

func (r *ListEntryRequest) Input() service.ListEntryInput {
	return service.ListEntryInput{Value: r.Value, Type: domain.EntryType(r.Type), Note: r.Note}
}

type AutoBlockRequest struct {
	Enabled   *bool    `json:"enabled" validate:"required"`
	Threshold *float64 `json:"threshold" validate:"required,gte=0,lte=1"`
}

func (r *AutoBlockRequest) Validate() error { return check(r) }

type CreateReportResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ErrorBody struct {
	Error *apperr.AppError `json:"error"`
}
